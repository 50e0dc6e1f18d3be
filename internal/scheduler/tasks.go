package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskBatchCallDispatch = "calls.batch.dispatch"

// DispatchLead is one recipient in a deferred batch call.
type DispatchLead struct {
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address,omitempty"`
}

// BatchCallDispatchPayload carries everything the worker needs to fire a
// scheduled batch without reloading the originating session, which will have
// expired by dispatch time.
type BatchCallDispatchPayload struct {
	BatchKey        string         `json:"batchKey"`
	UserID          string         `json:"userId"`
	UserEmail       string         `json:"userEmail"`
	ProviderAgentID string         `json:"providerAgentId"`
	CallerNumber    string         `json:"callerNumber"`
	BatchName       string         `json:"batchName"`
	Leads           []DispatchLead `json:"leads"`
}

func NewBatchCallDispatchTask(payload BatchCallDispatchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBatchCallDispatch, data), nil
}

func ParseBatchCallDispatchPayload(task *asynq.Task) (BatchCallDispatchPayload, error) {
	var payload BatchCallDispatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return BatchCallDispatchPayload{}, err
	}
	return payload, nil
}
