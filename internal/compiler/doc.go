// Package compiler turns an analyzed model into an Engine: a tree of closures
// specialized for one numeric backend. An Engine is immutable and creates
// Computations, which evaluate cells lazily for one host input and cache the
// results until they are reset.
//
// Compilation walks the section tree twice. The first pass allocates a record
// for every materialized cell and every section so formulas can refer to
// cells declared after them; the second pass compiles the formulas.
package compiler
