package engagement

import (
	"testing"
	"time"
)

func TestNormalizeClampsCounters(t *testing.T) {
	s := SessionData{
		TotalProperties:      10,
		PropertiesViewed:     14,
		PropertiesLiked:      20,
		PropertiesConsidered: -3,
		Duration:             -40,
	}.Normalize()

	if s.PropertiesViewed != 10 {
		t.Fatalf("expected viewed clamped to total, got %d", s.PropertiesViewed)
	}
	if s.PropertiesLiked != 10 {
		t.Fatalf("expected liked clamped to viewed, got %d", s.PropertiesLiked)
	}
	if s.PropertiesConsidered != 0 {
		t.Fatalf("expected negative considered to become zero, got %d", s.PropertiesConsidered)
	}
	if s.Duration != 0 {
		t.Fatalf("expected negative duration to become zero, got %d", s.Duration)
	}
}

func TestNormalizeCapsHugeCounters(t *testing.T) {
	huge := 1 << 62
	s := SessionData{
		TotalProperties:  huge,
		PropertiesViewed: huge,
		PropertiesLiked:  huge,
		MapViews:         huge,
		Duration:         huge,
	}.Normalize()

	if s.TotalProperties != MaxCount || s.PropertiesViewed != MaxCount || s.PropertiesLiked != MaxCount || s.MapViews != MaxCount {
		t.Fatalf("expected counters capped at %d, got %+v", MaxCount, s)
	}
	if s.Duration != MaxDurationSeconds {
		t.Fatalf("expected duration capped at %d, got %d", MaxDurationSeconds, s.Duration)
	}

	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	long := SessionData{StartTime: start, EndTime: start.AddDate(1, 0, 0), PropertiesViewed: 1}.Normalize()
	if long.Duration != MaxDurationSeconds {
		t.Fatalf("expected derived duration capped, got %d", long.Duration)
	}
}

func TestNormalizeDerivesDuration(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	s := SessionData{StartTime: start, EndTime: start.Add(7 * time.Minute), PropertiesViewed: 1}.Normalize()
	if s.Duration != 420 {
		t.Fatalf("expected 420 seconds, got %d", s.Duration)
	}
}

func TestNormalizeKeepsViewedWhenTotalUnknown(t *testing.T) {
	s := SessionData{PropertiesViewed: 20}.Normalize()
	if s.PropertiesViewed != 20 {
		t.Fatalf("expected viewed to stay 20, got %d", s.PropertiesViewed)
	}
}

func TestNormalizeZeroesBounce(t *testing.T) {
	s := SessionData{PropertiesLiked: 3, DetailViews: 2, ReturnVisit: true, LikedPropertyTypes: []string{"villa"}}.Normalize()
	if s.PropertiesLiked != 0 || s.DetailViews != 0 || s.ReturnVisit || s.LikedPropertyTypes != nil {
		t.Fatalf("expected bounce to be zeroed, got %+v", s)
	}
}

func TestActivityTime(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	if got := (SessionData{StartTime: start, Duration: 60}).ActivityTime(); !got.Equal(start.Add(time.Minute)) {
		t.Fatalf("expected start+duration, got %s", got)
	}
	end := start.Add(time.Hour)
	if got := (SessionData{StartTime: start, EndTime: end}).ActivityTime(); !got.Equal(end) {
		t.Fatalf("expected end time, got %s", got)
	}
	if got := (SessionData{}).ActivityTime(); !got.IsZero() {
		t.Fatalf("expected zero time, got %s", got)
	}
}

func TestReportedAt(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	end := now.Add(-time.Hour)

	if got := (SessionData{EndTime: end}).ReportedAt(now); !got.Equal(end) {
		t.Fatalf("expected session end, got %s", got)
	}
	if got := (SessionData{}).ReportedAt(now); !got.Equal(now) {
		t.Fatalf("expected now without timestamps, got %s", got)
	}
	if got := (SessionData{EndTime: now.Add(time.Hour)}).ReportedAt(now); !got.Equal(now) {
		t.Fatalf("expected now for a future timestamp, got %s", got)
	}
}
