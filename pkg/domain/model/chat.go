package model

import "github.com/kindred-lab/kindred/pkg/domain/types"

// MaxMessageLength is the input truncation bound applied before filtering
const MaxMessageLength = 2000

// ChatRequest is one inbound turn request
type ChatRequest struct {
	AgentID types.AgentID `json:"agentId"`
	Message string        `json:"message"`
	Locale  string        `json:"locale,omitempty"`
	Stream  bool          `json:"stream,omitempty"`
}

// ChatReply is the non-streaming response of one turn
type ChatReply struct {
	Message  string           `json:"message"`
	Provider types.ProviderID `json:"provider"`
	Reaction types.Reaction   `json:"reaction"`
}

// StreamEvent is one event of a streaming turn. Token events carry partial
// content; the terminal event has Done set with reaction and provider.
type StreamEvent struct {
	Token    string           `json:"token,omitempty"`
	Done     bool             `json:"done,omitempty"`
	Reaction types.Reaction   `json:"reaction,omitempty"`
	Provider types.ProviderID `json:"provider,omitempty"`
}

// ChatTurn is one (role, content) pair sent to a generation provider
type ChatTurn struct {
	Role    types.Role
	Content string
}

// GenerateRequest is the provider-neutral generation input
type GenerateRequest struct {
	System    string
	Turns     []ChatTurn
	MaxTokens int
}

// Token is the verified claim set of a bearer credential
type Token struct {
	Sub   string
	Email string
	Name  string
}
