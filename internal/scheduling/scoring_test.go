package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestScoreRoom(t *testing.T) {
	cases := []struct {
		name string
		in   ScoreInput
		want float64
	}{
		{"perfect fit with equipment", ScoreInput{Capacity: 10, RequiredCapacity: 8, HasRequiredEquipment: true}, 120},
		{"one conflict", ScoreInput{Conflicts: 1, Capacity: 10, RequiredCapacity: 8, HasRequiredEquipment: true}, 70},
		{"excess exactly at threshold", ScoreInput{Capacity: 30, RequiredCapacity: 10}, 100},
		{"excess beyond threshold", ScoreInput{Capacity: 50, RequiredCapacity: 10}, 80},
		{"floored at zero", ScoreInput{Conflicts: 5, Capacity: 10, RequiredCapacity: 10}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ScoreRoom(tc.in))
		})
	}
}

func TestScoreNeverNegative(t *testing.T) {
	w := DefaultScoreWeights()
	for conflicts := 0; conflicts < 10; conflicts++ {
		for capacity := 1; capacity < 400; capacity += 37 {
			score := w.Score(ScoreInput{Conflicts: conflicts, Capacity: capacity, RequiredCapacity: 1})
			assert.GreaterOrEqual(t, score, 0.0)
		}
	}
}

func TestScoreConflictFreeRanksAbove(t *testing.T) {
	clean := ScoreRoom(ScoreInput{Capacity: 12, RequiredCapacity: 10, HasRequiredEquipment: true})
	conflicted := ScoreRoom(ScoreInput{Conflicts: 1, Capacity: 12, RequiredCapacity: 10, HasRequiredEquipment: true})
	assert.Greater(t, clean, conflicted)
}

func TestCustomWeights(t *testing.T) {
	w := ScoreWeights{Base: 10, ConflictPenalty: 1, ExcessThreshold: 0, ExcessFactor: 1, EquipmentBonus: 0}
	assert.Equal(t, 7.0, w.Score(ScoreInput{Conflicts: 1, Capacity: 4, RequiredCapacity: 2}))
}

func TestHasEquipment(t *testing.T) {
	assert.True(t, HasEquipment(nil, nil))
	assert.True(t, HasEquipment([]string{"projector", "piano"}, []string{"piano"}))
	assert.False(t, HasEquipment([]string{"projector"}, []string{"piano"}))
}

func TestRequiredCapacity(t *testing.T) {
	assert.Equal(t, 1, RequiredCapacity(0, 0, nil))
	assert.Equal(t, 12, RequiredCapacity(5, 12, nil))
	assert.Equal(t, 20, RequiredCapacity(5, 12, intPtr(20)))
	assert.Equal(t, 30, RequiredCapacity(30, 12, intPtr(20)))
}
