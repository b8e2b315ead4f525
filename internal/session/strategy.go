// Camwatch - Camera Event Monitoring and Stream Session Management
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/camwatch

// Package session manages the single live stream session: ordered
// connection strategy fallback, observer notification, and teardown.
package session

import (
	"github.com/tomtom215/camwatch/internal/config"
)

// Sink identifies how a strategy renders the stream.
const (
	// SinkEmbedded renders into a surface the presentation layer embeds.
	SinkEmbedded = "embedded"
	// SinkAuto lets the platform pick an output window.
	SinkAuto = "auto"
	// SinkNull discards frames. Used as the last-resort probe so the
	// session can at least confirm the camera is reachable.
	SinkNull = "null"
)

// Transport identifies the RTP transport a strategy requests.
const (
	TransportUDP = "udp"
	TransportTCP = "tcp"
)

// Strategy is one ordered connection candidate. Candidates run from
// most capable to most minimal; the first that reaches Active wins.
type Strategy struct {
	// Description is a human-readable label for logs and status text.
	Description string

	// URL is the stream endpoint this candidate connects to.
	URL string

	// Transport is the requested RTP transport.
	Transport string

	// Sink is the rendering sink this candidate uses.
	Sink string
}

// BuildStrategies derives the ordered candidate list for a camera:
// primary URL over UDP with the embedded sink, primary over TCP with
// the platform sink, the fallback URL when configured, and a null-sink
// reachability probe last.
func BuildStrategies(cam config.CameraConfig) []Strategy {
	strategies := []Strategy{
		{
			Description: "primary stream, embedded sink",
			URL:         cam.URL,
			Transport:   TransportUDP,
			Sink:        SinkEmbedded,
		},
		{
			Description: "primary stream over TCP, platform sink",
			URL:         cam.URL,
			Transport:   TransportTCP,
			Sink:        SinkAuto,
		},
	}

	if cam.FallbackURL != "" {
		strategies = append(strategies, Strategy{
			Description: "fallback stream over TCP",
			URL:         cam.FallbackURL,
			Transport:   TransportTCP,
			Sink:        SinkAuto,
		})
	}

	strategies = append(strategies, Strategy{
		Description: "reachability probe, no rendering",
		URL:         cam.URL,
		Transport:   TransportTCP,
		Sink:        SinkNull,
	})

	return strategies
}
