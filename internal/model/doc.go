// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model is the in-memory form of a spreadsheet computation: a tree
// of sections holding cells, where each cell is a constant, an input bound to
// the host object, or a formula given as an Expr tree.
//
// A model is built once, by hand or by the hclmodel loader, and is immutable
// while it is compiled. Analyze validates the model and counts references,
// which decides which cells the compiler materializes.
package model
