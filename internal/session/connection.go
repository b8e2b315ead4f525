// Camwatch - Camera Event Monitoring and Stream Session Management
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/camwatch

package session

import "context"

// Surface is an opaque handle to a renderable video surface. The
// presentation layer type-asserts it to its toolkit's widget type.
type Surface any

// Connection is one stream connection attempt's capability surface.
// The manager drives it through SetReady then SetActive; either may
// fail, which makes the manager fall through to the next strategy.
type Connection interface {
	// SetReady prepares the connection (handshake, negotiation).
	SetReady() error

	// SetActive starts the media flow. Only valid after SetReady.
	SetActive() error

	// Stop tears the connection down. Idempotent; safe in any state.
	Stop()

	// DisplaySurface returns the renderable surface, if this
	// connection produces one. Null-sink connections return false and
	// the presentation layer shows its placeholder instead.
	DisplaySurface() (Surface, bool)
}

// Dialer constructs connections for strategies. The default dialer
// probes real stream endpoints; tests inject fakes.
//
// onFatal is invoked at most once, from an arbitrary goroutine, when an
// established connection dies on its own (stream dropped, peer gone).
// The manager reacts by tearing the session down and notifying the
// observer, the spontaneous-disconnect path.
type Dialer interface {
	Dial(ctx context.Context, s Strategy, onFatal func(error)) (Connection, error)
}
