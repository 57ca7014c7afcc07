// OnAir - Live Audience Presence and Engagement
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/onair

package engagement

import (
	"github.com/tomtom215/onair/internal/config"
	"github.com/tomtom215/onair/internal/models"
)

// Vocabulary is the set of reaction emoji accepted on each stream.
// It is immutable after construction.
type Vocabulary struct {
	ordered map[models.StreamType][]string
	allowed map[models.StreamType]map[string]struct{}
}

// NewVocabulary builds a Vocabulary from the configured per-stream lists,
// falling back to the built-in defaults for an empty list.
func NewVocabulary(cfg config.EngagementConfig) *Vocabulary {
	tv := cfg.ReactionsTV
	if len(tv) == 0 {
		tv = config.DefaultReactionsTV
	}
	radio := cfg.ReactionsRadio
	if len(radio) == 0 {
		radio = config.DefaultReactionsRadio
	}

	v := &Vocabulary{
		ordered: make(map[models.StreamType][]string, 2),
		allowed: make(map[models.StreamType]map[string]struct{}, 2),
	}
	v.set(models.StreamTV, tv)
	v.set(models.StreamRadio, radio)
	return v
}

func (v *Vocabulary) set(stream models.StreamType, emoji []string) {
	list := make([]string, 0, len(emoji))
	set := make(map[string]struct{}, len(emoji))
	for _, e := range emoji {
		if e == "" {
			continue
		}
		if _, dup := set[e]; dup {
			continue
		}
		set[e] = struct{}{}
		list = append(list, e)
	}
	v.ordered[stream] = list
	v.allowed[stream] = set
}

// Allowed reports whether emoji may be used as a reaction on stream.
func (v *Vocabulary) Allowed(stream models.StreamType, emoji string) bool {
	_, ok := v.allowed[stream][emoji]
	return ok
}

// Emojis returns the reaction emoji for stream in display order.
func (v *Vocabulary) Emojis(stream models.StreamType) []string {
	out := make([]string, len(v.ordered[stream]))
	copy(out, v.ordered[stream])
	return out
}
