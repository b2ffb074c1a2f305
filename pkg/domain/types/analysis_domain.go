package types

import "fmt"

// AnalysisDomain is a togglable vocabulary block injected into the prompt
// when the agent is configured to discuss that topic area.
type AnalysisDomain string

const (
	DomainCrypto      AnalysisDomain = "crypto"
	DomainStocks      AnalysisDomain = "stocks"
	DomainForex       AnalysisDomain = "forex"
	DomainCommodities AnalysisDomain = "commodities"
	DomainMacro       AnalysisDomain = "macro"
	DomainAcademic    AnalysisDomain = "academic"
)

// AllAnalysisDomains returns all valid analysis domains
func AllAnalysisDomains() []AnalysisDomain {
	return []AnalysisDomain{
		DomainCrypto,
		DomainStocks,
		DomainForex,
		DomainCommodities,
		DomainMacro,
		DomainAcademic,
	}
}

// IsValid checks if the analysis domain is valid
func (d AnalysisDomain) IsValid() bool {
	switch d {
	case DomainCrypto, DomainStocks, DomainForex,
		DomainCommodities, DomainMacro, DomainAcademic:
		return true
	default:
		return false
	}
}

// String returns the string representation of the analysis domain
func (d AnalysisDomain) String() string {
	return string(d)
}

// ParseAnalysisDomain parses a string into an AnalysisDomain
func ParseAnalysisDomain(s string) (AnalysisDomain, error) {
	d := AnalysisDomain(s)
	if !d.IsValid() {
		return "", fmt.Errorf("invalid analysis domain: %s", s)
	}
	return d, nil
}
