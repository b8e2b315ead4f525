// Camwatch - Camera Event Monitoring and Stream Session Management
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/camwatch

package event

import "strings"

// Kind classifies an inbound subject into the handling path the
// ingestion worker takes for it.
type Kind int

const (
	// KindUnknown is a subject this client does not handle.
	KindUnknown Kind = iota
	// KindEvent is a camera motion event (persisted).
	KindEvent
	// KindStatus is a camera liveness/status report (logged, surfaced).
	KindStatus
	// KindAlert is a camera alert (logged at elevated severity,
	// surfaced to the presentation layer, never persisted).
	KindAlert
	// KindControl is an operator command for this client.
	KindControl
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindEvent:
		return "event"
	case KindStatus:
		return "status"
	case KindAlert:
		return "alert"
	case KindControl:
		return "control"
	default:
		return "unknown"
	}
}

// Subject layout. Cameras publish on camera.<camera_type>.<suffix>;
// operator commands arrive on client.control and this client reports
// on client.status.
const (
	CameraWildcard = "camera.>"
	ControlSubject = "client.control"
	StatusSubject  = "client.status"
)

// EventSubject returns the motion event subject for a camera type.
// Example: camera.picam.events
func EventSubject(cameraType string) string {
	return "camera." + cameraType + ".events"
}

// Classify maps a subject to its handling kind. The camera type, when
// present, is returned alongside.
func Classify(subject string) (Kind, string) {
	if subject == ControlSubject {
		return KindControl, ""
	}

	parts := strings.Split(subject, ".")
	if len(parts) != 3 || parts[0] != "camera" {
		return KindUnknown, ""
	}

	switch parts[2] {
	case "events":
		return KindEvent, parts[1]
	case "status":
		return KindStatus, parts[1]
	case "alert":
		return KindAlert, parts[1]
	default:
		return KindUnknown, parts[1]
	}
}
