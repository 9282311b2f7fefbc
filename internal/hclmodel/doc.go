// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package hclmodel reads computation models and host inputs written in HCL.
//
// A model file holds cell and section blocks:
//
//	cell "discount" {
//	  input = "Discount"
//	  type  = number
//	}
//
//	section "items" {
//	  source = "Items"
//
//	  cell "price" { input = "Price" }
//	  cell "qty"   { input = "Qty" }
//	  cell "net"   { formula = price * qty * (1 - discount) }
//	}
//
//	cell "total" {
//	  formula = SUM(items.net)
//	  output  = true
//	}
//
// Formulas are HCL expressions. Names resolve to cells of the enclosing
// sections, section.cell reads a cell of every instance of a nested section,
// and functions are the spreadsheet functions of the model package. The
// conditional operator is IF, && and || are AND and OR, % is MOD and string
// templates concatenate. EACH(section, expr...) lists expressions per
// section instance and LET(name, value, body) binds a name.
package hclmodel
