package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/vglena/valorapro/internal/valuation/domain"
)

const TaskGenerateValuation = "valuations.generate"

type GenerateValuationPayload struct {
	JobID           string                 `json:"jobId"`
	Profile         domain.PropertyProfile `json:"profile"`
	NotifyApplicant bool                   `json:"notifyApplicant,omitempty"`
}

func NewGenerateValuationTask(payload GenerateValuationPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGenerateValuation, data), nil
}

func ParseGenerateValuationPayload(task *asynq.Task) (GenerateValuationPayload, error) {
	var payload GenerateValuationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return GenerateValuationPayload{}, err
	}
	return payload, nil
}
