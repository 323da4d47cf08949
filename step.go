package memoryruntime

import "time"

// StepStatus is the lifecycle status of a Step.
type StepStatus string

const (
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

// LLMInteraction optionally records the model-client call a step made. The
// runtime's own steps, compaction steps included, leave it nil.
type LLMInteraction struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// Step is the durable audit record of one event being processed end to end.
type Step struct {
	ID              string          `json:"id"`
	ThreadID        string          `json:"threadId"`
	TriggerEvent    Event           `json:"triggerEvent"`
	EventPayload    map[string]any  `json:"eventPayload,omitempty"`
	Status          StepStatus      `json:"status"`
	PreviousStateID string          `json:"previousStateId"`
	ResultStateID   string          `json:"resultStateId,omitempty"`
	StartedAt       time.Time       `json:"startedAt"`
	CompletedAt     time.Time       `json:"completedAt,omitempty"`
	Duration        time.Duration   `json:"duration,omitempty"`
	Error           string          `json:"error,omitempty"`
	LLMInteraction  *LLMInteraction `json:"llmInteraction,omitempty"`
}

// newRunningStep starts a Step record for the given event.
func newRunningStep(threadID string, event Event, previousStateID string) *Step {
	return &Step{
		ID:              newStepID(),
		ThreadID:        threadID,
		TriggerEvent:    event,
		EventPayload:    event.Payload,
		Status:          StepRunning,
		PreviousStateID: previousStateID,
		StartedAt:       nowFunc(),
	}
}

// complete marks the step completed with the given result state.
func (s *Step) complete(resultStateID string) {
	s.Status = StepCompleted
	s.ResultStateID = resultStateID
	s.CompletedAt = nowFunc()
	s.Duration = s.CompletedAt.Sub(s.StartedAt)
}

// fail marks the step failed with the given error, leaving ResultStateID
// empty: state is left unchanged when the step throws.
func (s *Step) fail(err error) {
	s.Status = StepFailed
	s.Error = err.Error()
	s.CompletedAt = nowFunc()
	s.Duration = s.CompletedAt.Sub(s.StartedAt)
}
