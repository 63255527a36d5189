// Package batch converts many ALH files at once.
//
// Inputs are files or directories scanned for .alhConfig files. Each file runs
// through its own conversion pipeline, several at a time. A manifest of input
// and output checksums lets later runs skip files that did not change.
package batch
