// Package parser reads ALH alarm-handler configuration files.
//
// An ALH file is a flat list of directives (GROUP, CHANNEL, $GUIDANCE, ...)
// whose meaning depends on what was declared before them. Parser keeps that
// positional context in a per-instance state and rebuilds the hierarchy as a
// map from entity path to alarm.Entity, plus the inclusion placeholders that
// point at other files.
//
// Multi-line directives ($GUIDANCE blocks, calculated $FORCEPV expressions)
// read ahead through a cursor that can push one line back, so the line that
// ends a block is dispatched as a regular directive.
//
// Structurally malformed directives abort the parse with a *DirectiveError.
// Unknown directives and duplicate registrations are recorded as
// Diagnostics and logged at warn level.
package parser
