// Package xinclude splices documents referenced by xi:include elements into
// the document that references them.
//
// Only inclusions selecting the children of the referenced root are supported,
// which is the form produced by the phoebus package.
package xinclude
