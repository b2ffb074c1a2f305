package types

// ProviderID names the generation provider that produced a reply
type ProviderID string

const (
	ProviderPrimary   ProviderID = "primary"
	ProviderSecondary ProviderID = "secondary"
	ProviderBuiltin   ProviderID = "builtin"
)

// String returns the string representation of the provider ID
func (p ProviderID) String() string {
	return string(p)
}

// Reaction is the post-turn expression tag attached to a reply
type Reaction string

const (
	ReactionCalm    Reaction = "calm"
	ReactionHappy   Reaction = "happy"
	ReactionExcited Reaction = "excited"
	ReactionCurious Reaction = "curious"
)

// String returns the string representation of the reaction
func (r Reaction) String() string {
	return string(r)
}
