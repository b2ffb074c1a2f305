package types

import (
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// AgentID is a UUID-based identifier for a companion agent.
// It must be syntactically validated before any store lookup.
type AgentID string

// NewAgentID generates a new UUID v4 AgentID
func NewAgentID() AgentID {
	return AgentID(uuid.New().String())
}

// Validate checks that the ID is a well-formed UUID
func (id AgentID) Validate() error {
	if _, err := uuid.Parse(string(id)); err != nil {
		return goerr.Wrap(err, "invalid agent ID", goerr.V("agent_id", string(id)))
	}
	return nil
}

// String returns the string representation of the agent ID
func (id AgentID) String() string {
	return string(id)
}

// UserID identifies the owning user. Issuance is external, so the only
// local constraint is non-emptiness.
type UserID string

// Validate checks that the user ID is present
func (id UserID) Validate() error {
	if id == "" {
		return goerr.New("empty user ID")
	}
	return nil
}

// String returns the string representation of the user ID
func (id UserID) String() string {
	return string(id)
}
