package domain

// TaskType classifies the follow-up work an agent has to do.
type TaskType string

const (
	TaskTypeImmediateOutreach TaskType = "immediate_outreach"
	TaskTypeScheduledFollowUp TaskType = "scheduled_follow_up"
	TaskTypeNurtureCampaign   TaskType = "nurture_campaign"
	TaskTypeManual            TaskType = "manual"
)

// TaskPriority orders tasks in the agent queue.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

func IsKnownTaskPriority(p TaskPriority) bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

// TaskStatus is the agent-facing lifecycle of a task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusDismissed  TaskStatus = "dismissed"
	TaskStatusOverdue    TaskStatus = "overdue"
	TaskStatusBlocked    TaskStatus = "blocked"
)

var terminalTaskStatuses = map[TaskStatus]bool{
	TaskStatusCompleted: true,
	TaskStatusDismissed: true,
}

var knownTaskStatuses = map[TaskStatus]struct{}{
	TaskStatusPending:    {},
	TaskStatusInProgress: {},
	TaskStatusCompleted:  {},
	TaskStatusDismissed:  {},
	TaskStatusOverdue:    {},
	TaskStatusBlocked:    {},
}

func IsKnownTaskStatus(s TaskStatus) bool {
	_, ok := knownTaskStatuses[s]
	return ok
}

// IsTerminalTaskStatus returns true once an agent has resolved the task.
func IsTerminalTaskStatus(s TaskStatus) bool {
	return terminalTaskStatuses[s]
}

// IsOpenTaskStatus returns true while the task still waits on an agent.
func IsOpenTaskStatus(s TaskStatus) bool {
	return IsKnownTaskStatus(s) && !IsTerminalTaskStatus(s)
}

// ValidateTaskTransition returns a non-empty reason when moving a task from
// one status to another is not allowed.
func ValidateTaskTransition(from, to TaskStatus) string {
	if !IsKnownTaskStatus(to) {
		return "unknown task status"
	}
	if IsTerminalTaskStatus(from) {
		return "task is already resolved"
	}
	if to == TaskStatusOverdue {
		return "overdue is assigned by the scheduler"
	}
	return ""
}
