package lifecycle

import (
	"errors"
	"testing"

	"dealflow_backend/internal/deals/domain"
)

func TestNextSkipsIntermediateStages(t *testing.T) {
	m := NewMachine(DefaultPolicy)

	got := m.Next(domain.StageCreated, Facts{Viewed: true, Score: 85, Temperature: domain.TemperatureHot})
	if got != domain.StageQualified {
		t.Fatalf("expected created to reach qualified in one step, got %s", got)
	}

	got = m.Next(domain.StageCreated, Facts{Viewed: true, Score: 30, Temperature: domain.TemperatureCold})
	if got != domain.StageEngaged {
		t.Fatalf("expected created to reach engaged, got %s", got)
	}
}

func TestNextTable(t *testing.T) {
	m := NewMachine(DefaultPolicy)

	cases := []struct {
		name    string
		current domain.Stage
		facts   Facts
		want    domain.Stage
	}{
		{"distribution only", domain.StageCreated, Facts{Distributed: true}, domain.StageShared},
		{"no facts", domain.StageCreated, Facts{}, domain.StageCreated},
		{"view without score", domain.StageShared, Facts{Viewed: true}, domain.StageAccessed},
		{"score at floor is not engaged", domain.StageAccessed, Facts{Viewed: true, Score: 20}, domain.StageAccessed},
		{"score above floor", domain.StageAccessed, Facts{Viewed: true, Score: 21}, domain.StageEngaged},
		{"warm qualifies", domain.StageEngaged, Facts{Viewed: true, Score: 50, Temperature: domain.TemperatureWarm}, domain.StageQualified},
		{"qualified never advances automatically", domain.StageQualified, Facts{Viewed: true, Score: 100, Temperature: domain.TemperatureHot}, domain.StageQualified},
		{"advanced never closes automatically", domain.StageAdvanced, Facts{Viewed: true, Score: 100, Temperature: domain.TemperatureHot}, domain.StageAdvanced},
		{"closed stays closed", domain.StageClosed, Facts{Viewed: true, Score: 100, Temperature: domain.TemperatureHot}, domain.StageClosed},
		{"unknown stage untouched", domain.Stage("archived"), Facts{Viewed: true, Score: 90}, domain.Stage("archived")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := m.Next(tc.current, tc.facts); got != tc.want {
				t.Fatalf("Next(%s) = %s, want %s", tc.current, got, tc.want)
			}
		})
	}
}

func TestNextNeverRegresses(t *testing.T) {
	m := NewMachine(DefaultPolicy)
	scores := []int{0, 10, 21, 49, 50, 79, 80, 100}
	temps := []domain.Temperature{domain.TemperatureCold, domain.TemperatureWarm, domain.TemperatureHot}

	for _, current := range domain.Stages() {
		for _, score := range scores {
			for _, temp := range temps {
				for _, viewed := range []bool{false, true} {
					got := m.Next(current, Facts{Viewed: viewed, Score: score, Temperature: temp})
					if got.Before(current) {
						t.Fatalf("stage regressed from %s to %s", current, got)
					}
				}
			}
		}
	}
}

func TestNoViewSessionStopsAtAccessed(t *testing.T) {
	m := NewMachine(DefaultPolicy)
	got := m.Next(domain.StageCreated, Facts{Viewed: true, Score: 0, Temperature: domain.TemperatureCold})
	if got != domain.StageAccessed {
		t.Fatalf("expected accessed, got %s", got)
	}
}

func TestWalkReportsTransitions(t *testing.T) {
	m := NewMachine(DefaultPolicy)
	stage, taken := m.Walk(domain.StageShared, Facts{Viewed: true, Score: 60, Temperature: domain.TemperatureWarm})
	if stage != domain.StageQualified {
		t.Fatalf("expected qualified, got %s", stage)
	}
	want := []Trigger{TriggerViewed, TriggerEngaged, TriggerQualified}
	if len(taken) != len(want) {
		t.Fatalf("expected %d transitions, got %d", len(want), len(taken))
	}
	for i, tr := range taken {
		if tr.Trigger != want[i] {
			t.Fatalf("transition %d: expected %s, got %s", i, want[i], tr.Trigger)
		}
	}
}

func TestApplyManual(t *testing.T) {
	m := NewMachine(DefaultPolicy)

	got, err := m.ApplyManual(domain.StageQualified, domain.StageAdvanced)
	if err != nil || got != domain.StageAdvanced {
		t.Fatalf("expected manual advance, got %s, %v", got, err)
	}

	got, err = m.ApplyManual(domain.StageEngaged, domain.StageShared)
	if err != nil || got != domain.StageShared {
		t.Fatalf("expected manual regression to be allowed, got %s, %v", got, err)
	}

	if _, err := m.ApplyManual(domain.StageAdvanced, domain.StageClosed); !errors.Is(err, ErrCloseRequired) {
		t.Fatalf("expected ErrCloseRequired, got %v", err)
	}
	if _, err := m.ApplyManual(domain.StageAdvanced, domain.Stage("won")); !errors.Is(err, ErrUnknownStage) {
		t.Fatalf("expected ErrUnknownStage, got %v", err)
	}
	if _, err := m.ApplyManual(domain.StageAdvanced, domain.StageAdvanced); !errors.Is(err, ErrNoChange) {
		t.Fatalf("expected ErrNoChange, got %v", err)
	}
}

func TestClose(t *testing.T) {
	m := NewMachine(DefaultPolicy)
	if got, err := m.Close(domain.StageEngaged); err != nil || got != domain.StageClosed {
		t.Fatalf("expected closed, got %s, %v", got, err)
	}
	if _, err := m.Close(domain.StageClosed); !errors.Is(err, ErrAlreadyClosed) {
		t.Fatalf("expected ErrAlreadyClosed, got %v", err)
	}
}

func TestOnlyManualTriggersReachAdvancedAndClosed(t *testing.T) {
	for _, tr := range Transitions() {
		if tr.To == domain.StageAdvanced || tr.To == domain.StageClosed {
			if tr.Trigger.Automatic() {
				t.Fatalf("transition to %s must not be automatic", tr.To)
			}
		}
	}
}
