package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/clockit-hq/clockit/internal/model"
)

type PushStore struct {
	db *sql.DB
}

func NewPushStore(db *sql.DB) *PushStore {
	return &PushStore{db: db}
}

const pushSubCols = `id, user_id, endpoint, p256dh_key, auth_key, user_agent, created_at`

func scanPushSubscription(scanner interface{ Scan(...any) error }) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := scanner.Scan(
		&sub.ID, &sub.UserID, &sub.Endpoint, &sub.P256dhKey,
		&sub.AuthKey, &sub.UserAgent, &sub.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Subscribe registers a browser push endpoint. Re-subscribing an existing
// endpoint rebinds it to the current user.
func (s *PushStore) Subscribe(userID int64, endpoint, p256dhKey, authKey, userAgent string) (*model.PushSubscription, error) {
	_, err := s.db.Exec(`
		INSERT INTO push_subscriptions (user_id, endpoint, p256dh_key, auth_key, user_agent)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (endpoint) DO UPDATE SET
			user_id = excluded.user_id,
			p256dh_key = excluded.p256dh_key,
			auth_key = excluded.auth_key,
			user_agent = excluded.user_agent`,
		userID, endpoint, p256dhKey, authKey, userAgent,
	)
	if err != nil {
		return nil, fmt.Errorf("subscribe push endpoint: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+pushSubCols+` FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	sub, err := scanPushSubscription(row)
	if err != nil {
		return nil, fmt.Errorf("get push subscription: %w", err)
	}
	return sub, nil
}

func (s *PushStore) Unsubscribe(endpoint string) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	if err != nil {
		return fmt.Errorf("unsubscribe push endpoint: %w", err)
	}
	return nil
}

// DeleteByID removes a subscription, scoped to its owner.
func (s *PushStore) DeleteByID(id, userID int64) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
	}
	return nil
}

func (s *PushStore) ListByUser(userID int64) ([]*model.PushSubscription, error) {
	rows, err := s.db.Query(`
		SELECT `+pushSubCols+` FROM push_subscriptions WHERE user_id = ?`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*model.PushSubscription
	for rows.Next() {
		sub, err := scanPushSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan push subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// MarkSent records that a notification was delivered for the given reference.
// Returns false when a previous delivery already claimed it.
func (s *PushStore) MarkSent(notifType, refID string) (bool, error) {
	_, err := s.db.Exec(`
		INSERT INTO push_sent (notif_type, ref_id) VALUES (?, ?)`,
		notifType, refID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return false, nil
		}
		return false, fmt.Errorf("mark notification sent: %w", err)
	}
	return true, nil
}

func (s *PushStore) PruneSent(before string) error {
	_, err := s.db.Exec(`DELETE FROM push_sent WHERE sent_at < ?`, before)
	if err != nil {
		return fmt.Errorf("prune sent notifications: %w", err)
	}
	return nil
}
