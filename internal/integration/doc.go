// Package integration holds end-to-end tests that run whole conversions over
// the fixtures in testdata.
package integration
