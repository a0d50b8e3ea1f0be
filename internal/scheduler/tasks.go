package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskOverdueCheck = "deals.task.overdue_check"

type TaskOverdueCheckPayload struct {
	TaskID string `json:"taskId"`
}

func NewTaskOverdueCheckTask(payload TaskOverdueCheckPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOverdueCheck, data), nil
}

func ParseTaskOverdueCheckPayload(task *asynq.Task) (TaskOverdueCheckPayload, error) {
	var payload TaskOverdueCheckPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return TaskOverdueCheckPayload{}, err
	}
	return payload, nil
}
