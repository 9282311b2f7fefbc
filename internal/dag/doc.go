// Package dag is the dependency graph between the cells of a model. The
// model validator adds one node per cell and one edge per reference, then
// asks the graph for cycles and for an evaluation order.
package dag
