// Camwatch - Camera Event Monitoring and Stream Session Management
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/camwatch

// Package event defines the canonical camera event model, the control
// and status message formats, and their JSON serialization.
package event

import (
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the wire and storage format for event timestamps.
// Lexicographic ordering of this layout matches chronological ordering,
// which the store and read model rely on.
const TimestampLayout = "2006-01-02 15:04:05"

// Event type constants.
const (
	TypeMotionDetected = "motion_detected"
	TypeClientStatus   = "client_status"
	TypeClientPing     = "client_ping"
)

// Control actions accepted on the control subject.
const (
	ActionConnect    = "connect"
	ActionDisconnect = "disconnect"
)

// CameraEvent is a motion event reported by a remote camera.
// The field set and timestamp format follow the camera firmware's
// publish payload; CameraType and CameraName both identify the source
// device (type is the stable identifier used for counters).
type CameraEvent struct {
	Type       string  `json:"type"`
	CameraName string  `json:"camera_name"`
	CameraType string  `json:"camera_type"`
	Timestamp  string  `json:"timestamp"` // TimestampLayout, sortable
	VideoPath  string  `json:"video_path"`
	Confidence float64 `json:"confidence,omitempty"`
	Duration   float64 `json:"duration,omitempty"`
	Viewed     bool    `json:"viewed"`
}

// NewCameraEvent creates a motion event stamped with the current time.
func NewCameraEvent(cameraName, cameraType, videoPath string) *CameraEvent {
	return &CameraEvent{
		Type:       TypeMotionDetected,
		CameraName: cameraName,
		CameraType: cameraType,
		Timestamp:  time.Now().UTC().Format(TimestampLayout),
		VideoPath:  videoPath,
	}
}

// Validate checks required fields and returns an error if validation fails.
// Timestamp format is deliberately not validated here: events with odd
// timestamps are still persisted, the read model just excludes them from
// time-window counts.
func (e *CameraEvent) Validate() error {
	if e.CameraType == "" {
		return &ValidationError{Field: "camera_type", Message: "required"}
	}
	if e.Timestamp == "" {
		return &ValidationError{Field: "timestamp", Message: "required"}
	}
	if e.VideoPath == "" {
		return &ValidationError{Field: "video_path", Message: "required"}
	}
	return nil
}

// Time parses the event timestamp. The second return value is false
// when the timestamp does not match TimestampLayout.
func (e *CameraEvent) Time() (time.Time, bool) {
	t, err := time.Parse(TimestampLayout, e.Timestamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Identity returns the logical identity key (device, timestamp, artifact).
// Two events with equal identity describe the same occurrence.
func (e *CameraEvent) Identity() string {
	return e.CameraType + "|" + e.Timestamp + "|" + e.VideoPath
}

// StoredEvent is a CameraEvent as read back from the durable store,
// with the store-assigned row id and insertion time.
type StoredEvent struct {
	ID        int64
	CameraEvent
	CreatedAt time.Time
}

// StatusMessage is the client status payload published on the status subject.
type StatusMessage struct {
	Type          string   `json:"type"`
	Status        string   `json:"status"`
	Timestamp     string   `json:"timestamp"`
	ActiveCameras []string `json:"active_cameras,omitempty"`
	ClientID      string   `json:"client_id"`
}

// NewStatusMessage creates a status message for the given client instance.
func NewStatusMessage(clientID, status string, activeCameras []string) *StatusMessage {
	if clientID == "" {
		clientID = uuid.New().String()
	}
	return &StatusMessage{
		Type:          TypeClientStatus,
		Status:        status,
		Timestamp:     time.Now().UTC().Format(TimestampLayout),
		ActiveCameras: activeCameras,
		ClientID:      clientID,
	}
}

// ControlMessage is an inbound command on the control subject.
type ControlMessage struct {
	Action string `json:"action"`
	Camera string `json:"camera,omitempty"`
}

// Validate checks the control action is one this client understands.
func (c *ControlMessage) Validate() error {
	switch c.Action {
	case ActionConnect, ActionDisconnect:
		return nil
	default:
		return &ValidationError{Field: "action", Message: "unknown action " + c.Action}
	}
}
