package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/surveydesk/backoffice/internal/navigation"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskResolveName caches the display name of one entity.
	TaskResolveName = navigation.TaskResolveName
	// TaskWarmAccountNames refreshes cached account names in bulk.
	TaskWarmAccountNames = "names:warm-accounts"
)

// WarmAccountNamesPayload bounds a bulk refresh.
type WarmAccountNamesPayload struct {
	Limit int `json:"limit"`
}

// NewWarmAccountNamesTask constructs an Asynq task.
func NewWarmAccountNamesTask(limit int) (*asynq.Task, error) {
	data, err := json.Marshal(WarmAccountNamesPayload{Limit: limit})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWarmAccountNames, data), nil
}
