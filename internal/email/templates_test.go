package email

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestRenderTaskAlert(t *testing.T) {
	subject, body, err := renderTaskAlert(TaskAlert{
		DealTitle: "Canal <house>",
		TaskTitle: "Call the client",
		Priority:  "high",
		DueDate:   time.Date(2026, 5, 4, 14, 0, 0, 0, time.UTC),
		TaskURL:   "https://app.example.com/tasks/1",
	})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if subject != "[HIGH] New follow-up for Canal <house>" {
		t.Fatalf("unexpected subject: %s", subject)
	}
	if !strings.Contains(body, "Canal &lt;house&gt;") {
		t.Fatal("expected the deal title to be escaped")
	}
	if !strings.Contains(body, "https://app.example.com/tasks/1") || !strings.Contains(body, "Mon 4 May 2026 14:00 UTC") {
		t.Fatalf("expected link and due date in body: %s", body)
	}
}

func TestRenderOverdueAlert(t *testing.T) {
	subject, body, err := renderTaskAlert(TaskAlert{DealTitle: "Loft", TaskTitle: "Follow up", Priority: "medium", Overdue: true})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if subject != "Overdue follow-up for Loft" || !strings.Contains(body, "Was due") {
		t.Fatalf("unexpected overdue rendering: %s", subject)
	}
	if strings.Contains(body, "Open task") {
		t.Fatal("expected no call to action without a URL")
	}
}

func TestNoopSender(t *testing.T) {
	if err := (NoopSender{}).SendTaskAlert(context.Background(), "agent@example.com", TaskAlert{}); err != nil {
		t.Fatalf("noop sender returned %v", err)
	}
}

func TestTaskAlertText(t *testing.T) {
	text := taskAlertText(TaskAlert{
		DealTitle: "Canal house",
		TaskTitle: "Call the client",
		Priority:  "urgent",
		DueDate:   time.Date(2026, 5, 4, 14, 0, 0, 0, time.UTC),
		Overdue:   true,
	})
	for _, want := range []string{"overdue", "Canal house", "urgent", "Mon 4 May 2026 14:00 UTC"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in %q", want, text)
		}
	}
}
