package types

import "fmt"

// Persona selects the base framing of the agent's system prompt
type Persona string

const (
	PersonaFriend   Persona = "friend"
	PersonaLover    Persona = "lover"
	PersonaAcademic Persona = "academic"
	PersonaYoutube  Persona = "youtube"
	PersonaBlog     Persona = "blog"
	PersonaSNS      Persona = "sns"
	PersonaNovelist Persona = "novelist"
	PersonaMemorial Persona = "memorial"
)

// AllPersonas returns all valid personas
func AllPersonas() []Persona {
	return []Persona{
		PersonaFriend,
		PersonaLover,
		PersonaAcademic,
		PersonaYoutube,
		PersonaBlog,
		PersonaSNS,
		PersonaNovelist,
		PersonaMemorial,
	}
}

// IsValid checks if the persona is valid
func (p Persona) IsValid() bool {
	switch p {
	case PersonaFriend, PersonaLover, PersonaAcademic, PersonaYoutube,
		PersonaBlog, PersonaSNS, PersonaNovelist, PersonaMemorial:
		return true
	default:
		return false
	}
}

// String returns the string representation of the persona
func (p Persona) String() string {
	return string(p)
}

// ParsePersona parses a string into a Persona
func ParsePersona(s string) (Persona, error) {
	p := Persona(s)
	if !p.IsValid() {
		return "", fmt.Errorf("invalid persona: %s", s)
	}
	return p, nil
}
