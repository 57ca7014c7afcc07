// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package services

import (
	"context"
	"time"

	"github.com/tomtom215/onair/internal/logging"
)

// DefaultPurgeInterval applies when the configured interval is not positive.
const DefaultPurgeInterval = time.Minute

// Purger deletes presence records past their retention period.
// Satisfied by *presence.Tracker.
type Purger interface {
	Purge(ctx context.Context) (int, error)
}

// PresencePurgeService calls Purge on a fixed interval. Failures are logged
// and retried on the next tick; viewer counts do not depend on purging.
type PresencePurgeService struct {
	purger   Purger
	interval time.Duration
	name     string
}

// NewPresencePurgeService creates the purge loop.
func NewPresencePurgeService(purger Purger, interval time.Duration) *PresencePurgeService {
	if interval <= 0 {
		interval = DefaultPurgeInterval
	}
	return &PresencePurgeService{
		purger:   purger,
		interval: interval,
		name:     "presence-purge",
	}
}

// Serve implements suture.Service.
func (s *PresencePurgeService) Serve(ctx context.Context) error {
	logger := logging.WithComponent(s.name)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			removed, err := s.purger.Purge(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn().Err(err).Msg("Presence purge failed")
				continue
			}
			if removed > 0 {
				logger.Info().Int("removed", removed).Msg("Presence purge complete")
			}
		}
	}
}

// String implements fmt.Stringer for suture's logs.
func (s *PresencePurgeService) String() string {
	return s.name
}
