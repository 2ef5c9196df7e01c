package repository

import (
	"context"

	"payguard/internal/model"
)

// InsertTransaction appends a ledger row for an approval. The unique
// constraint on request_id plus ON CONFLICT DO NOTHING makes redelivered
// approval events harmless: exactly one row per approval, never updated.
func (r *Repo) InsertTransaction(ctx context.Context, t *model.Transaction) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO transactions (agent_id, request_id, amount, recipient_address, settlement_reference, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (request_id) DO NOTHING`,
		t.AgentID, t.RequestID, t.Amount, t.RecipientAddress, t.SettlementReference, t.Status,
	)
	if err != nil {
		return false, storeErr("insert transaction", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repo) ListTransactionsByAgent(ctx context.Context, agentID string) ([]model.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, agent_id, request_id, amount, recipient_address, settlement_reference, status, created_at
		FROM transactions WHERE agent_id = $1 ORDER BY created_at DESC`,
		agentID,
	)
	if err != nil {
		return nil, storeErr("list transactions", err)
	}
	defer rows.Close()

	txs := []model.Transaction{}
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(
			&t.ID, &t.AgentID, &t.RequestID, &t.Amount, &t.RecipientAddress,
			&t.SettlementReference, &t.Status, &t.CreatedAt,
		); err != nil {
			return nil, storeErr("scan transaction", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list transactions", err)
	}
	return txs, nil
}
