// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package services

import (
	"context"
	"fmt"
)

// BusRunner runs a message router until ctx is canceled. Run must be
// callable again after it returns; *eventbus.Bus rebuilds its router for
// that.
type BusRunner interface {
	Run(ctx context.Context) error
}

// EventBusService supervises the in-process event bus router.
type EventBusService struct {
	bus  BusRunner
	name string
}

// NewEventBusService wraps bus.
func NewEventBusService(bus BusRunner) *EventBusService {
	return &EventBusService{bus: bus, name: "event-bus"}
}

// Serve implements suture.Service. A router that stops while ctx is still
// live is reported as a failure so suture restarts it with a fresh router.
func (s *EventBusService) Serve(ctx context.Context) error {
	err := s.bus.Run(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("event bus router failed: %w", err)
	}
	return fmt.Errorf("event bus router stopped unexpectedly")
}

// String implements fmt.Stringer for suture's logs.
func (s *EventBusService) String() string {
	return s.name
}
