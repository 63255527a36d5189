// Package tree turns the flat path-to-entity map produced by the parser into
// an explicit rooted tree.
//
// Build walks group child lists breadth-first from the root and fails on any
// structural defect: a child path with no entity, a path reached twice, or an
// entity that is not reachable from the root at all.
package tree
