// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger writing console lines to stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level configuration and parsing utilities,
//   - convenience functions (Infof, WarnKV, etc.).
//
// The conversion pipeline reports recoverable anomalies (unknown directives,
// duplicate registrations) through the logger carried by the context, so
// standard output stays free for generated documents.
package logger
