// Package inspector prints the hierarchy recovered from an ALH file as YAML,
// which helps to check what the parser made of a legacy configuration before
// converting it.
package inspector
