package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"payguard/internal/budget"
	"payguard/internal/model"
)

// SubmitPaymentRequest runs the whole submit decision atomically: the
// agent row is locked for the duration, so two concurrent submits against
// the same agent serialize and cannot both consume the same headroom.
// Cross-agent submits only contend on their own rows.
func (r *Repo) SubmitPaymentRequest(ctx context.Context, req model.SubmitRequest) (*model.PaymentRequest, *model.Agent, error) {
	var (
		created model.PaymentRequest
		agent   model.Agent
	)

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			SELECT `+agentColumns+` FROM agents
			WHERE id = $1 AND is_active = TRUE
			FOR UPDATE`,
			req.AgentID,
		).Scan(
			&agent.ID, &agent.Name, &agent.Description, &agent.WalletAddress, &agent.OwnerAddress,
			&agent.SpendingLimit, &agent.TotalSpent, &agent.IsActive, &agent.CreatedAt, &agent.UpdatedAt,
		)
		if isNoRows(err) {
			return fmt.Errorf("%w: agent %s not found or inactive", model.ErrNotFound, req.AgentID)
		}
		if err != nil {
			return storeErr("lock agent", err)
		}

		decision := budget.Evaluate(&agent, req.Amount)

		status := model.StatusPending
		var processedAt *time.Time
		var processedBy *string
		if decision.AutoApprove {
			status = model.StatusApproved
			now := time.Now().UTC()
			processedAt = &now
			by := model.ProcessedByAuto
			processedBy = &by
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO payment_requests
				(agent_id, amount, recipient_address, reason, status, processed_at, processed_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, requested_at`,
			req.AgentID, req.Amount, req.RecipientAddress, req.Reason, status, processedAt, processedBy,
		).Scan(&created.ID, &created.RequestedAt)
		if err != nil {
			return storeErr("insert request", err)
		}

		created.AgentID = req.AgentID
		created.Amount = req.Amount
		created.RecipientAddress = req.RecipientAddress
		created.Reason = req.Reason
		created.Status = status
		created.ProcessedAt = processedAt
		created.ProcessedBy = processedBy

		if decision.AutoApprove {
			if _, err := tx.Exec(ctx, `
				UPDATE agents SET total_spent = $1, updated_at = NOW() WHERE id = $2`,
				decision.NewTotalSpent, req.AgentID,
			); err != nil {
				return storeErr("update total_spent", err)
			}
			agent.TotalSpent = decision.NewTotalSpent
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &created, &agent, nil
}

// DecidePaymentRequest applies an owner's approve/deny to a pending
// request. The request row is locked first, so a concurrent decide loses
// the race cleanly with ErrAlreadyProcessed. On approve the owner override
// is authoritative: total_spent is incremented without a limit re-check.
func (r *Repo) DecidePaymentRequest(ctx context.Context, req model.DecideRequest) (*model.PaymentRequest, *model.Agent, error) {
	var (
		pr    model.PaymentRequest
		agent model.Agent
	)

	err := r.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			SELECT id, agent_id, amount, recipient_address, reason, status, requested_at, processed_at, processed_by
			FROM payment_requests WHERE id = $1
			FOR UPDATE`,
			req.RequestID,
		).Scan(
			&pr.ID, &pr.AgentID, &pr.Amount, &pr.RecipientAddress, &pr.Reason,
			&pr.Status, &pr.RequestedAt, &pr.ProcessedAt, &pr.ProcessedBy,
		)
		if isNoRows(err) {
			return fmt.Errorf("%w: request %d", model.ErrNotFound, req.RequestID)
		}
		if err != nil {
			return storeErr("lock request", err)
		}

		if pr.Status != model.StatusPending {
			return fmt.Errorf("%w: request %d is %s", model.ErrAlreadyProcessed, req.RequestID, pr.Status)
		}

		err = tx.QueryRow(ctx, `
			SELECT `+agentColumns+` FROM agents WHERE id = $1 FOR UPDATE`,
			pr.AgentID,
		).Scan(
			&agent.ID, &agent.Name, &agent.Description, &agent.WalletAddress, &agent.OwnerAddress,
			&agent.SpendingLimit, &agent.TotalSpent, &agent.IsActive, &agent.CreatedAt, &agent.UpdatedAt,
		)
		if err != nil {
			return storeErr("lock agent", err)
		}

		if agent.OwnerAddress != req.ApproverAddress {
			return fmt.Errorf("%w: request %d", model.ErrUnauthorized, req.RequestID)
		}

		status := model.StatusDenied
		if req.Action == model.ActionApprove {
			status = model.StatusApproved
		}
		now := time.Now().UTC()

		if _, err := tx.Exec(ctx, `
			UPDATE payment_requests SET status = $1, processed_at = $2, processed_by = $3 WHERE id = $4`,
			status, now, req.ApproverAddress, req.RequestID,
		); err != nil {
			return storeErr("update request", err)
		}
		pr.Status = status
		pr.ProcessedAt = &now
		pr.ProcessedBy = &req.ApproverAddress

		if req.Action == model.ActionApprove {
			if _, err := tx.Exec(ctx, `
				UPDATE agents SET total_spent = total_spent + $1, updated_at = NOW() WHERE id = $2`,
				pr.Amount, pr.AgentID,
			); err != nil {
				return storeErr("update total_spent", err)
			}
			agent.TotalSpent += pr.Amount
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &pr, &agent, nil
}

// ListPending returns pending requests newest first, joined with the
// owning agent's budget state, optionally filtered by owner and/or agent.
func (r *Repo) ListPending(ctx context.Context, owner, agentID string) ([]model.PendingItem, error) {
	sb := strings.Builder{}
	sb.WriteString(`
		SELECT pr.id, pr.agent_id, pr.amount, pr.recipient_address, pr.reason,
		       pr.status, pr.requested_at, pr.processed_at, pr.processed_by,
		       a.name, a.wallet_address, a.spending_limit, a.total_spent
		FROM payment_requests pr
		JOIN agents a ON pr.agent_id = a.id
		WHERE pr.status = 'pending'`)
	args := []any{}
	if owner != "" {
		args = append(args, owner)
		sb.WriteString(" AND a.owner_address = $" + strconv.Itoa(len(args)))
	}
	if agentID != "" {
		args = append(args, agentID)
		sb.WriteString(" AND pr.agent_id = $" + strconv.Itoa(len(args)))
	}
	sb.WriteString(" ORDER BY pr.requested_at DESC")

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, storeErr("list pending", err)
	}
	defer rows.Close()

	items := []model.PendingItem{}
	for rows.Next() {
		var it model.PendingItem
		if err := rows.Scan(
			&it.ID, &it.AgentID, &it.Amount, &it.RecipientAddress, &it.Reason,
			&it.Status, &it.RequestedAt, &it.ProcessedAt, &it.ProcessedBy,
			&it.AgentName, &it.WalletAddress, &it.SpendingLimit, &it.TotalSpent,
		); err != nil {
			return nil, storeErr("scan pending", err)
		}
		it.RemainingBudget = it.SpendingLimit - it.TotalSpent
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list pending", err)
	}
	return items, nil
}

// CountPending counts an owner's requests still awaiting a decision.
func (r *Repo) CountPending(ctx context.Context, owner string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM payment_requests pr
		JOIN agents a ON pr.agent_id = a.id
		WHERE a.owner_address = $1 AND pr.status = 'pending'`,
		owner,
	).Scan(&n)
	if err != nil {
		return 0, storeErr("count pending", err)
	}
	return n, nil
}
