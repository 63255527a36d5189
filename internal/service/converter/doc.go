// Package converter turns one ALH configuration file into a Phoebus alarm XML
// document by running the parser, the tree builder and the serializer in turn.
//
// With inclusion resolution enabled, every INCLUDE target is converted the same
// way into its own document and the parent's reference points at it. Each file
// gets a fresh parser; a visited set keeps cyclic inclusions finite.
package converter
