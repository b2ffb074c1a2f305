package types

// MemoryCategory classifies an extracted memory entry
type MemoryCategory string

const (
	CategoryIdentity       MemoryCategory = "identity"
	CategoryPreference     MemoryCategory = "preference"
	CategoryInterest       MemoryCategory = "interest"
	CategoryRelationship   MemoryCategory = "relationship"
	CategoryGoal           MemoryCategory = "goal"
	CategoryEmotion        MemoryCategory = "emotion"
	CategoryExperience     MemoryCategory = "experience"
	CategoryStyle          MemoryCategory = "style"
	CategoryKnowledgeLevel MemoryCategory = "knowledge_level"
)

// IsValid checks if the memory category is valid
func (c MemoryCategory) IsValid() bool {
	switch c {
	case CategoryIdentity, CategoryPreference, CategoryInterest,
		CategoryRelationship, CategoryGoal, CategoryEmotion,
		CategoryExperience, CategoryStyle, CategoryKnowledgeLevel:
		return true
	default:
		return false
	}
}

// String returns the string representation of the memory category
func (c MemoryCategory) String() string {
	return string(c)
}
