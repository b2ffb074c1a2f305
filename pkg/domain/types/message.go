package types

// Role is the author of a conversation message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid checks if the role is valid
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// Channel is the surface a message arrived through
type Channel string

const (
	ChannelWeb Channel = "web"
	ChannelAPI Channel = "api"
)

// String returns the string representation of the channel
func (c Channel) String() string {
	return string(c)
}
