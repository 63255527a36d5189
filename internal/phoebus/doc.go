// Package phoebus writes an alarm tree as a Phoebus alarm server XML configuration.
//
// The document root is <config name="...">. Groups become nested <component>
// elements and channels become <pv> elements. A PV name is emitted once per
// document: when the same channel is declared under several groups, the first
// group in depth-first order keeps it and later declarations are dropped and
// listed in the Report. Inclusion markers are not resolved; each one becomes an
// <xi:include> element pointing at the referenced file.
package phoebus
