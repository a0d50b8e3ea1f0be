package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type taskAlertEmailData struct {
	baseEmailData
	DealTitle string
	TaskTitle string
	Priority  string
	DueDate   string
	Overdue   bool
}

func renderTaskAlert(alert TaskAlert) (string, string, error) {
	subject := fmt.Sprintf(subjectTaskAlertFmt, strings.ToUpper(alert.Priority), alert.DealTitle)
	heading := "New follow-up task"
	if alert.Overdue {
		subject = fmt.Sprintf(subjectTaskOverdueFmt, alert.DealTitle)
		heading = "Follow-up task is overdue"
	}

	content, err := renderEmailTemplate("task_alert.html", taskAlertEmailData{
		baseEmailData: baseEmailData{
			Title:    heading,
			Heading:  heading,
			CTALabel: "Open task",
			CTAURL:   alert.TaskURL,
		},
		DealTitle: alert.DealTitle,
		TaskTitle: alert.TaskTitle,
		Priority:  alert.Priority,
		DueDate:   alert.DueDate.UTC().Format(dueDateLayout),
		Overdue:   alert.Overdue,
	})
	return subject, content, err
}

const dueDateLayout = "Mon 2 Jan 2006 15:04 MST"

// taskAlertText is the plain-text part sent next to the HTML body.
func taskAlertText(alert TaskAlert) string {
	var b strings.Builder
	if alert.Overdue {
		b.WriteString("A follow-up task is overdue.\n\n")
	} else {
		b.WriteString("A new follow-up task was generated.\n\n")
	}
	fmt.Fprintf(&b, "Deal:     %s\n", alert.DealTitle)
	fmt.Fprintf(&b, "Task:     %s\n", alert.TaskTitle)
	fmt.Fprintf(&b, "Priority: %s\n", alert.Priority)
	fmt.Fprintf(&b, "Due:      %s\n", alert.DueDate.UTC().Format(dueDateLayout))
	if alert.TaskURL != "" {
		fmt.Fprintf(&b, "\n%s\n", alert.TaskURL)
	}
	return b.String()
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}
