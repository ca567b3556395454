// Package shadex implements the formal-type analyzer and shader emitter
// for a visual shader-graph compiler: node-graph data model, a parser for
// the node-type declaration and graph-construction surface languages, the
// two-pass per-port type analyzer, and the topological shader emitter.
//
// The visual editor, GPU backend and the two surface languages' full
// feature sets are external collaborators; this package owns the data
// model and the two algorithms that operate over it.
package shadex
