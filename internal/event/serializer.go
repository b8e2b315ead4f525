// Camwatch - Camera Event Monitoring and Stream Session Management
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/camwatch

package event

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Serializer converts events and messages to and from their wire form.
// goccy/go-json is a drop-in encoding/json replacement with better
// throughput on small payloads like these.
type Serializer struct{}

// NewSerializer creates a serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// SerializeEvent marshals a camera event after validating it.
func (s *Serializer) SerializeEvent(e *CameraEvent) ([]byte, error) {
	if e == nil {
		return nil, ErrNilEvent
	}
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}

	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// DeserializeEvent unmarshals and validates a camera event payload.
func (s *Serializer) DeserializeEvent(data []byte) (*CameraEvent, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}

	var e CameraEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}
	return &e, nil
}

// DeserializeControl unmarshals and validates a control payload.
func (s *Serializer) DeserializeControl(data []byte) (*ControlMessage, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}

	var c ControlMessage
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal control: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate control: %w", err)
	}
	return &c, nil
}

// SerializeStatus marshals a status message.
func (s *Serializer) SerializeStatus(m *StatusMessage) ([]byte, error) {
	if m == nil {
		return nil, ErrNilEvent
	}

	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal status: %w", err)
	}
	return data, nil
}
