// Package modelclient defines the external language-model collaborator
// the built-in compactor uses to summarize chunks. No
// concrete provider is implemented here; that adapter is explicitly out of
// scope.
package modelclient

import "context"

// Message is one entry in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the payload sent to a Client.
type CompletionRequest struct {
	Messages    []Message
	Temperature *float64
	MaxTokens   *int
}

// Usage reports token accounting for a completion call.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// CompletionResult is what a Client returns.
type CompletionResult struct {
	Content string
	Usage   Usage
}

// Client is the single-call external model collaborator:
// complete({messages, temperature?, maxTokens?}) -> {content, usage}.
// Failure propagates unchanged.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}
