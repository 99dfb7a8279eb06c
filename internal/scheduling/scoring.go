package scheduling

import "math"

// ScoreWeights parameterises the room suggestion score.
type ScoreWeights struct {
	Base            float64
	ConflictPenalty float64
	ExcessThreshold int
	ExcessFactor    float64
	EquipmentBonus  float64
}

// DefaultScoreWeights returns the stock policy: 100 base, -50 per conflict,
// -0.5 per seat beyond 20 spare seats, +20 for a full equipment match.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Base:            100,
		ConflictPenalty: 50,
		ExcessThreshold: 20,
		ExcessFactor:    0.5,
		EquipmentBonus:  20,
	}
}

// ScoreInput describes one candidate room against an activity.
type ScoreInput struct {
	Conflicts            int
	Capacity             int
	RequiredCapacity     int
	HasRequiredEquipment bool
}

// Score applies the weights to in. The result is never negative.
func (w ScoreWeights) Score(in ScoreInput) float64 {
	score := w.Base - w.ConflictPenalty*float64(in.Conflicts)
	if excess := in.Capacity - in.RequiredCapacity; excess > w.ExcessThreshold {
		score -= w.ExcessFactor * float64(excess)
	}
	if in.HasRequiredEquipment {
		score += w.EquipmentBonus
	}
	return math.Max(0, score)
}

// ScoreRoom scores in with the default weights.
func ScoreRoom(in ScoreInput) float64 {
	return DefaultScoreWeights().Score(in)
}

// HasEquipment reports whether every required id is present in available.
// An empty requirement is always satisfied.
func HasEquipment(available, required []string) bool {
	if len(required) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(available))
	for _, id := range available {
		set[id] = struct{}{}
	}
	for _, id := range required {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

// RequiredCapacity resolves the seats an activity needs: the largest of the requested
// minimum, current participants and the activity cap, never below one.
func RequiredCapacity(minCapacity, participants int, capacityMax *int) int {
	required := 1
	for _, v := range []int{minCapacity, participants} {
		if v > required {
			required = v
		}
	}
	if capacityMax != nil && *capacityMax > required {
		required = *capacityMax
	}
	return required
}
