package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestBuildDealListWhereNoFilters(t *testing.T) {
	where, args, argIdx := buildDealListWhere(ListParams{})
	if where != "1 = 1" {
		t.Fatalf("unexpected where clause: %s", where)
	}
	if len(args) != 0 || argIdx != 1 {
		t.Fatalf("expected no args and argIdx 1, got %d args, argIdx %d", len(args), argIdx)
	}
}

func TestBuildDealListWhereAllFilters(t *testing.T) {
	status := "active"
	stage := "engaged"
	temperature := "hot"
	agent := uuid.New()
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	minValue := int64(100_000)
	maxValue := int64(900_000)

	where, args, argIdx := buildDealListWhere(ListParams{
		Status:         &status,
		Stage:          &stage,
		Temperature:    &temperature,
		Search:         " canal ",
		AgentID:        &agent,
		CreatedAtFrom:  &from,
		CreatedAtTo:    &to,
		ValueCentsFrom: &minValue,
		ValueCentsTo:   &maxValue,
	})

	expected := []string{
		"d.status = $1",
		"d.stage = $2",
		"d.temperature = $3",
		"(d.title ILIKE $4 OR d.link_id ILIKE $4)",
		"d.agent_id = $5",
		"d.created_at >= $6",
		"d.created_at < $7",
		"d.value_cents >= $8",
		"d.value_cents <= $9",
	}
	for _, clause := range expected {
		if !strings.Contains(where, clause) {
			t.Fatalf("expected %q in %s", clause, where)
		}
	}
	if len(args) != 9 || argIdx != 10 {
		t.Fatalf("expected 9 args and argIdx 10, got %d args, argIdx %d", len(args), argIdx)
	}
	if args[3] != "%canal%" {
		t.Fatalf("expected trimmed search pattern, got %v", args[3])
	}
}

func TestMapDealSortColumnDefaultsToCreatedAt(t *testing.T) {
	if got := mapDealSortColumn("'; DROP TABLE deals; --"); got != "d.created_at" {
		t.Fatalf("expected default sort column, got %s", got)
	}
	if got := mapDealSortColumn("score"); got != "d.engagement_score" {
		t.Fatalf("expected score column, got %s", got)
	}
}

func TestBuildTaskListWhere(t *testing.T) {
	status := "pending"
	where, args, argIdx := buildTaskListWhere(TaskListParams{Status: &status})
	if !strings.Contains(where, "t.status = $1") || len(args) != 1 || argIdx != 2 {
		t.Fatalf("unexpected task where: %s (%d args, argIdx %d)", where, len(args), argIdx)
	}
}

func TestPrefixedDealColumns(t *testing.T) {
	cols := prefixedDealColumns()
	if !strings.HasPrefix(cols, "d.id, d.link_id") || strings.Contains(cols, "\n") {
		t.Fatalf("unexpected prefixed columns: %s", cols)
	}
}
