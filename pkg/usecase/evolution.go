package usecase

// evolutionParams collects the evolution-roll constants. These are game
// tuning values carried over as-is, not derived from anything.
type evolutionParams struct {
	baseRates        map[int]int // keyed by generation
	fallbackRate     int
	maxProbability   int
	nearMissProgress int
	maxGeneration    int
	progressDelta    int // progress gained per turn
}

func defaultEvolutionParams() evolutionParams {
	return evolutionParams{
		baseRates:        map[int]int{1: 60, 2: 40, 3: 20, 4: 5},
		fallbackRate:     5,
		maxProbability:   95,
		nearMissProgress: 80,
		maxGeneration:    5,
		progressDelta:    3,
	}
}

// probability computes the evolution chance in percent for an agent at
// full progress. Monotonic in the average personality score and in the
// total conversation count.
func (p evolutionParams) probability(generation, avgPersonality, totalConversations int) int {
	base, ok := p.baseRates[generation]
	if !ok {
		base = p.fallbackRate
	}

	traitBonus := avgPersonality / 20

	turnBonus := totalConversations / 50
	if turnBonus > 10 {
		turnBonus = 10
	}

	prob := base + traitBonus + turnBonus
	if prob > p.maxProbability {
		prob = p.maxProbability
	}
	return prob
}

// roll resolves a full progress bar: either the generation advances and
// progress resets to 0, or progress falls back to the near-miss value.
// draw is a uniform sample in [0, 1).
func (p evolutionParams) roll(generation, avgPersonality, totalConversations int, draw float64) (newGeneration, newProgress int) {
	if generation >= p.maxGeneration {
		return generation, p.nearMissProgress
	}

	prob := p.probability(generation, avgPersonality, totalConversations)
	if draw*100 < float64(prob) {
		return generation + 1, 0
	}
	return generation, p.nearMissProgress
}
