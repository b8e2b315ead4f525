// Camwatch - Camera Event Monitoring and Stream Session Management
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/camwatch

package event

import (
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		subject    string
		wantKind   Kind
		wantCamera string
	}{
		{"camera.picam.events", KindEvent, "picam"},
		{"camera.esp32.status", KindStatus, "esp32"},
		{"camera.picam.alert", KindAlert, "picam"},
		{"camera.*.events", KindEvent, "*"},
		{"client.control", KindControl, ""},
		{"client.status", KindUnknown, ""},
		{"camera.picam", KindUnknown, ""},
		{"camera.picam.events.extra", KindUnknown, ""},
		{"weather.report", KindUnknown, ""},
		{"", KindUnknown, ""},
	}

	for _, tt := range tests {
		kind, camera := Classify(tt.subject)
		if kind != tt.wantKind || camera != tt.wantCamera {
			t.Errorf("Classify(%q) = (%v, %q), want (%v, %q)",
				tt.subject, kind, camera, tt.wantKind, tt.wantCamera)
		}
	}
}

func TestCameraEventValidate(t *testing.T) {
	valid := NewCameraEvent("Front Door", "picam", "/videos/clip1.mp4")
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() on valid event = %v, want nil", err)
	}

	tests := []struct {
		name      string
		mutate    func(*CameraEvent)
		wantField string
	}{
		{"missing camera_type", func(e *CameraEvent) { e.CameraType = "" }, "camera_type"},
		{"missing timestamp", func(e *CameraEvent) { e.Timestamp = "" }, "timestamp"},
		{"missing video_path", func(e *CameraEvent) { e.VideoPath = "" }, "video_path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewCameraEvent("Front Door", "picam", "/videos/clip1.mp4")
			tt.mutate(e)

			err := e.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("ValidationError.Field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestCameraEventTime(t *testing.T) {
	e := &CameraEvent{Timestamp: "2026-08-30 14:05:09"}
	ts, ok := e.Time()
	if !ok {
		t.Fatal("Time() ok = false for well-formed timestamp")
	}
	if ts.Hour() != 14 || ts.Second() != 9 {
		t.Errorf("Time() = %v, parsed wrong", ts)
	}

	malformed := &CameraEvent{Timestamp: "yesterday-ish"}
	if _, ok := malformed.Time(); ok {
		t.Error("Time() ok = true for malformed timestamp")
	}
}

func TestTimestampOrderingIsLexicographic(t *testing.T) {
	// The store and read model order events by raw timestamp strings.
	earlier := "2026-08-30 09:59:59"
	later := "2026-08-30 10:00:00"
	if !(earlier < later) {
		t.Fatalf("timestamp layout does not sort lexicographically: %q vs %q", earlier, later)
	}
}

func TestSerializerRejectsMalformed(t *testing.T) {
	s := NewSerializer()

	if _, err := s.DeserializeEvent(nil); !errors.Is(err, ErrEmptyPayload) {
		t.Errorf("DeserializeEvent(nil) = %v, want ErrEmptyPayload", err)
	}
	if _, err := s.DeserializeEvent([]byte("{not json")); err == nil {
		t.Error("DeserializeEvent on invalid JSON = nil, want error")
	}
	// Parses but fails validation.
	if _, err := s.DeserializeEvent([]byte(`{"type":"motion_detected"}`)); err == nil {
		t.Error("DeserializeEvent on incomplete event = nil, want error")
	}
}

func TestSerializerRoundTrip(t *testing.T) {
	s := NewSerializer()
	e := NewCameraEvent("Garage", "esp32", "/videos/clip9.mp4")
	e.Confidence = 0.93

	data, err := s.SerializeEvent(e)
	if err != nil {
		t.Fatalf("SerializeEvent() = %v", err)
	}

	got, err := s.DeserializeEvent(data)
	if err != nil {
		t.Fatalf("DeserializeEvent() = %v", err)
	}
	if got.Identity() != e.Identity() {
		t.Errorf("round-trip identity = %q, want %q", got.Identity(), e.Identity())
	}
	if got.Confidence != e.Confidence {
		t.Errorf("round-trip confidence = %v, want %v", got.Confidence, e.Confidence)
	}
}

func TestControlValidate(t *testing.T) {
	if err := (&ControlMessage{Action: ActionConnect, Camera: "picam"}).Validate(); err != nil {
		t.Errorf("Validate(connect) = %v, want nil", err)
	}
	if err := (&ControlMessage{Action: ActionDisconnect}).Validate(); err != nil {
		t.Errorf("Validate(disconnect) = %v, want nil", err)
	}
	if err := (&ControlMessage{Action: "reboot"}).Validate(); err == nil {
		t.Error("Validate(reboot) = nil, want error")
	}
}
