package repository

import (
	"context"

	"payguard/internal/model"
)

func (r *Repo) InsertNotification(ctx context.Context, n *model.Notification) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO notifications (recipient_address, kind, title, message, payload)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		n.RecipientAddress, n.Kind, n.Title, n.Message, n.Payload,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return storeErr("insert notification", err)
	}
	return nil
}

func (r *Repo) UnreadNotifications(ctx context.Context, recipient string, limit int) ([]model.Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, recipient_address, kind, title, message, payload, is_read, created_at
		FROM notifications
		WHERE recipient_address = $1 AND is_read = FALSE
		ORDER BY created_at DESC
		LIMIT $2`,
		recipient, limit,
	)
	if err != nil {
		return nil, storeErr("unread notifications", err)
	}
	defer rows.Close()

	notifs := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(
			&n.ID, &n.RecipientAddress, &n.Kind, &n.Title, &n.Message,
			&n.Payload, &n.IsRead, &n.CreatedAt,
		); err != nil {
			return nil, storeErr("scan notification", err)
		}
		notifs = append(notifs, n)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("unread notifications", err)
	}
	return notifs, nil
}

// MarkNotificationsRead flips is_read after delivery. Delivery is
// at-least-once: a crash between read and mark just redelivers.
func (r *Repo) MarkNotificationsRead(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = ANY($1)`, ids,
	); err != nil {
		return storeErr("mark notifications read", err)
	}
	return nil
}
