// Package manifest persists what a batch conversion produced.
//
// The manifest maps every converted input to the checksums of the files read
// and written for it, so a later run can skip inputs that did not change. The
// FileRepository stores it as YAML on disk.
package manifest
