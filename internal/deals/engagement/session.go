// Package engagement turns browsing-session telemetry into a bounded
// engagement score and a temperature tier.
//
// Everything in this package is pure: no I/O, no shared mutable state. The
// functions are safe for concurrent use across deals.
package engagement

import (
	"strings"
	"time"
)

// SessionData is one browsing session on a shared collection, as reported by
// the client UI. It is untrusted telemetry: Normalize repairs it instead of
// rejecting it.
type SessionData struct {
	SessionID            string    `json:"sessionId"`
	StartTime            time.Time `json:"startTime"`
	EndTime              time.Time `json:"endTime"`
	Duration             int       `json:"duration"` // seconds
	TotalProperties      int       `json:"totalProperties"`
	PropertiesViewed     int       `json:"propertiesViewed"`
	PropertiesLiked      int       `json:"propertiesLiked"`
	PropertiesConsidered int       `json:"propertiesConsidered"`
	DetailViews          int       `json:"detailViews,omitempty"`
	ImagesBrowsed        int       `json:"imagesBrowsed,omitempty"`
	MapViews             int       `json:"mapViews,omitempty"`
	LikedPropertyTypes   []string  `json:"likedPropertyTypes,omitempty"`
	ReturnVisit          bool      `json:"returnVisit,omitempty"`
}

const (
	// MaxCount bounds every session counter. Larger values are telemetry
	// garbage and would overflow the weighted sums and the INTEGER columns.
	MaxCount = 100_000
	// MaxDurationSeconds bounds a single session at one week.
	MaxDurationSeconds = 7 * 24 * 60 * 60
)

// Normalize clamps malformed counters so the session satisfies
// 0 <= counter <= MaxCount, 0 <= duration <= MaxDurationSeconds,
// viewed <= total and liked/considered <= viewed.
// A session without viewed properties is reduced to a bounce: every
// interaction counter is zeroed.
func (s SessionData) Normalize() SessionData {
	out := s
	out.TotalProperties = clamp(s.TotalProperties, 0, MaxCount)
	out.PropertiesViewed = clamp(s.PropertiesViewed, 0, MaxCount)
	out.PropertiesLiked = clamp(s.PropertiesLiked, 0, MaxCount)
	out.PropertiesConsidered = clamp(s.PropertiesConsidered, 0, MaxCount)
	out.DetailViews = clamp(s.DetailViews, 0, MaxCount)
	out.ImagesBrowsed = clamp(s.ImagesBrowsed, 0, MaxCount)
	out.MapViews = clamp(s.MapViews, 0, MaxCount)
	out.Duration = clamp(s.Duration, 0, MaxDurationSeconds)

	if out.Duration == 0 && !s.StartTime.IsZero() && s.EndTime.After(s.StartTime) {
		span := s.EndTime.Sub(s.StartTime)
		if span > MaxDurationSeconds*time.Second {
			span = MaxDurationSeconds * time.Second
		}
		out.Duration = int(span.Seconds())
	}

	if out.TotalProperties > 0 && out.PropertiesViewed > out.TotalProperties {
		out.PropertiesViewed = out.TotalProperties
	}
	if out.PropertiesLiked > out.PropertiesViewed {
		out.PropertiesLiked = out.PropertiesViewed
	}
	if out.PropertiesConsidered > out.PropertiesViewed {
		out.PropertiesConsidered = out.PropertiesViewed
	}

	if out.PropertiesViewed == 0 {
		out.PropertiesLiked = 0
		out.PropertiesConsidered = 0
		out.DetailViews = 0
		out.ImagesBrowsed = 0
		out.MapViews = 0
		out.LikedPropertyTypes = nil
		out.ReturnVisit = false
		return out
	}

	types := make([]string, 0, min(len(s.LikedPropertyTypes), MaxCount))
	for _, t := range s.LikedPropertyTypes {
		if len(types) == MaxCount {
			break
		}
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			types = append(types, t)
		}
	}
	out.LikedPropertyTypes = types

	return out
}

// ActivityTime returns the moment the session last showed activity, or the
// zero time when the telemetry carries no timestamps.
func (s SessionData) ActivityTime() time.Time {
	if !s.EndTime.IsZero() {
		return s.EndTime
	}
	if !s.StartTime.IsZero() && s.Duration > 0 {
		return s.StartTime.Add(time.Duration(s.Duration) * time.Second)
	}
	return s.StartTime
}

// ReportedAt is the activity time a recomputation scores and persists: the
// session's own activity time, or now when the telemetry carries no usable
// timestamp (missing or in the future).
func (s SessionData) ReportedAt(now time.Time) time.Time {
	if t := s.ActivityTime(); !t.IsZero() && !t.After(now) {
		return t
	}
	return now
}
