// Package alarm contains the in-memory model of an alarm hierarchy.
//
// It defines Group (an internal node), Channel (a monitored PV) and
// InclusionMarker (a placeholder for another source file), wrapped in the
// closed Entity variant, plus the auxiliary force-PV, severity-PV, ack-PV and
// heartbeat-PV descriptions. Entities are addressed by slash-joined paths that
// are built exclusively through JoinPath.
package alarm
