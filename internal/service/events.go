package service

import "github.com/chepyr/go-task-tracker/internal/models"

// TaskEvents receives task changes after they are persisted.
type TaskEvents interface {
	Publish(event models.TaskEvent)
}

type noopEvents struct{}

func (noopEvents) Publish(models.TaskEvent) {}
