// Package budget holds the pure spending decision. No I/O: the caller
// loads the agent under a lock, asks for a decision, and persists the
// outcome in the same transaction.
package budget

import "payguard/internal/model"

// Decision is the outcome of evaluating a requested amount against an
// agent's remaining budget. NewTotalSpent is only meaningful when
// AutoApprove is true; otherwise spend is unchanged until the owner acts.
type Decision struct {
	AutoApprove   bool
	NewTotalSpent int64
}

// Evaluate applies the budget gate. Amounts are integers in the smallest
// currency unit; the comparison never touches floating point.
func Evaluate(agent *model.Agent, amount int64) Decision {
	next := agent.TotalSpent + amount
	if next <= agent.SpendingLimit {
		return Decision{AutoApprove: true, NewTotalSpent: next}
	}
	return Decision{AutoApprove: false, NewTotalSpent: agent.TotalSpent}
}
