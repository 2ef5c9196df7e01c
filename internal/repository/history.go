package repository

import (
	"context"
	"strconv"
	"strings"

	"payguard/internal/model"
)

// History returns a page of requests joined with their agent and ledger
// transaction, plus the total count and summary statistics for the
// filtered owner. Read-only; consistency is whatever the tables hold at
// query time.
func (r *Repo) History(ctx context.Context, f model.HistoryFilter) (*model.HistoryPage, error) {
	where, args := historyWhere(f)

	listQuery := `
		SELECT pr.id, pr.agent_id, pr.amount, pr.recipient_address, pr.reason,
		       pr.status, pr.requested_at, pr.processed_at, pr.processed_by,
		       a.name, a.wallet_address, a.owner_address,
		       t.settlement_reference, t.status
		FROM payment_requests pr
		JOIN agents a ON pr.agent_id = a.id
		LEFT JOIN transactions t ON pr.id = t.request_id
		` + where + `
		ORDER BY pr.requested_at DESC
		LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)

	rows, err := r.pool.Query(ctx, listQuery, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, storeErr("history", err)
	}
	defer rows.Close()

	items := []model.HistoryItem{}
	for rows.Next() {
		var it model.HistoryItem
		if err := rows.Scan(
			&it.ID, &it.AgentID, &it.Amount, &it.RecipientAddress, &it.Reason,
			&it.Status, &it.RequestedAt, &it.ProcessedAt, &it.ProcessedBy,
			&it.AgentName, &it.WalletAddress, &it.OwnerAddress,
			&it.SettlementReference, &it.TransactionStatus,
		); err != nil {
			return nil, storeErr("scan history", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("history", err)
	}

	var total int64
	countQuery := `
		SELECT COUNT(*) FROM payment_requests pr
		JOIN agents a ON pr.agent_id = a.id ` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, storeErr("history count", err)
	}

	stats, err := r.historyStats(ctx, f.OwnerAddress)
	if err != nil {
		return nil, err
	}

	return &model.HistoryPage{
		Items:   items,
		Total:   total,
		Limit:   f.Limit,
		Offset:  f.Offset,
		HasMore: int64(f.Offset+f.Limit) < total,
		Stats:   *stats,
	}, nil
}

func historyWhere(f model.HistoryFilter) (string, []any) {
	clauses := []string{}
	args := []any{}
	if f.OwnerAddress != "" {
		args = append(args, f.OwnerAddress)
		clauses = append(clauses, "a.owner_address = $"+strconv.Itoa(len(args)))
	}
	if f.AgentID != "" {
		args = append(args, f.AgentID)
		clauses = append(clauses, "pr.agent_id = $"+strconv.Itoa(len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		clauses = append(clauses, "pr.status = $"+strconv.Itoa(len(args)))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func (r *Repo) historyStats(ctx context.Context, owner string) (*model.HistoryStats, error) {
	stats := &model.HistoryStats{}
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE pr.status = 'pending'),
			COUNT(*) FILTER (WHERE pr.status = 'approved'),
			COUNT(*) FILTER (WHERE pr.status = 'denied'),
			COALESCE(SUM(pr.amount) FILTER (WHERE pr.status = 'approved'), 0)
		FROM payment_requests pr
		JOIN agents a ON pr.agent_id = a.id
		WHERE ($1 = '' OR a.owner_address = $1)`,
		owner,
	).Scan(&stats.PendingCount, &stats.ApprovedCount, &stats.DeniedCount, &stats.TotalVolume)
	if err != nil {
		return nil, storeErr("history stats", err)
	}
	return stats, nil
}
