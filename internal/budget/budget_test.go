package budget

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"payguard/internal/model"
)

func agent(limit, spent int64) *model.Agent {
	return &model.Agent{SpendingLimit: limit, TotalSpent: spent}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name        string
		limit       int64
		spent       int64
		amount      int64
		autoApprove bool
		newSpent    int64
	}{
		{"fits with headroom", 100, 0, 60, true, 60},
		{"exact boundary approves", 100, 40, 60, true, 100},
		{"one over boundary stays pending", 100, 41, 60, false, 41},
		{"exceeds limit", 100, 60, 60, false, 60},
		{"fresh agent large limit", 5_000_000, 0, 1_000_000, true, 1_000_000},
		{"over limit after prior spend", 5_000_000, 1_000_000, 6_000_000, false, 1_000_000},
		{"zero spent equals limit", 100, 0, 100, true, 100},
		{"already past limit via override", 100, 150, 1, false, 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(agent(tt.limit, tt.spent), tt.amount)
			assert.Equal(t, tt.autoApprove, d.AutoApprove)
			assert.Equal(t, tt.newSpent, d.NewTotalSpent)
		})
	}
}

func TestEvaluate_DoesNotMutateAgent(t *testing.T) {
	a := agent(100, 10)
	Evaluate(a, 50)
	assert.Equal(t, int64(10), a.TotalSpent)
}
