package repository

import (
	"context"
	"fmt"

	"payguard/internal/model"
)

const agentColumns = `id, name, description, wallet_address, owner_address,
	spending_limit, total_spent, is_active, created_at, updated_at`

func (r *Repo) CreateAgent(ctx context.Context, a *model.Agent) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO agents (id, name, description, wallet_address, owner_address, spending_limit)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		a.ID, a.Name, a.Description, a.WalletAddress, a.OwnerAddress, a.SpendingLimit,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return storeErr("insert agent", err)
	}
	a.TotalSpent = 0
	a.IsActive = true
	return nil
}

func (r *Repo) GetAgent(ctx context.Context, id string) (*model.Agent, error) {
	a := &model.Agent{}
	err := r.pool.QueryRow(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE id = $1`, id,
	).Scan(
		&a.ID, &a.Name, &a.Description, &a.WalletAddress, &a.OwnerAddress,
		&a.SpendingLimit, &a.TotalSpent, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	)
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: agent %s", model.ErrNotFound, id)
	}
	if err != nil {
		return nil, storeErr("select agent", err)
	}
	return a, nil
}

func (r *Repo) ListAgentsByOwner(ctx context.Context, owner string) ([]model.Agent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE owner_address = $1 ORDER BY created_at DESC`,
		owner,
	)
	if err != nil {
		return nil, storeErr("list agents", err)
	}
	defer rows.Close()

	agents := []model.Agent{}
	for rows.Next() {
		var a model.Agent
		if err := rows.Scan(
			&a.ID, &a.Name, &a.Description, &a.WalletAddress, &a.OwnerAddress,
			&a.SpendingLimit, &a.TotalSpent, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, storeErr("scan agent", err)
		}
		agents = append(agents, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list agents", err)
	}
	return agents, nil
}

// DeactivateAgent flips is_active off. Deactivated agents reject new
// requests but keep their history. Owner-only.
func (r *Repo) DeactivateAgent(ctx context.Context, agentID, owner string) (*model.Agent, error) {
	a := &model.Agent{}
	err := r.pool.QueryRow(ctx, `
		UPDATE agents SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND owner_address = $2
		RETURNING `+agentColumns,
		agentID, owner,
	).Scan(
		&a.ID, &a.Name, &a.Description, &a.WalletAddress, &a.OwnerAddress,
		&a.SpendingLimit, &a.TotalSpent, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	)
	if isNoRows(err) {
		// Distinguish a missing agent from a foreign owner so the caller
		// can return 404 vs 403.
		if _, getErr := r.GetAgent(ctx, agentID); getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("%w: agent %s", model.ErrUnauthorized, agentID)
	}
	if err != nil {
		return nil, storeErr("deactivate agent", err)
	}
	return a, nil
}
