package store

import (
	"database/sql"
	"fmt"

	"github.com/clockit-hq/clockit/internal/model"
)

// SettingsStore holds the per-user singleton rows: working hours schedule,
// notification preferences and the emergency contact. Reads fall back to
// defaults when no row exists; writes upsert.
type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func (s *SettingsStore) GetWorkingHours(userID int64) (*model.WorkingHours, error) {
	var wh model.WorkingHours
	err := s.db.QueryRow(`
		SELECT user_id, start_time, end_time, break_time, work_days, max_daily_hours, updated_at
		FROM working_hours WHERE user_id = ?`,
		userID,
	).Scan(&wh.UserID, &wh.StartTime, &wh.EndTime, &wh.BreakTime, &wh.WorkDays, &wh.MaxDailyHours, &wh.UpdatedAt)
	if err == sql.ErrNoRows {
		return &model.WorkingHours{
			UserID:        userID,
			StartTime:     "09:00",
			EndTime:       "17:00",
			BreakTime:     60,
			WorkDays:      "MONDAY,TUESDAY,WEDNESDAY,THURSDAY,FRIDAY",
			MaxDailyHours: 8,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get working hours: %w", err)
	}
	return &wh, nil
}

func (s *SettingsStore) SetWorkingHours(userID int64, startTime, endTime string, breakTime int, workDays string, maxDailyHours int) (*model.WorkingHours, error) {
	_, err := s.db.Exec(`
		INSERT INTO working_hours (user_id, start_time, end_time, break_time, work_days, max_daily_hours)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			break_time = excluded.break_time,
			work_days = excluded.work_days,
			max_daily_hours = excluded.max_daily_hours,
			updated_at = CURRENT_TIMESTAMP`,
		userID, startTime, endTime, breakTime, workDays, maxDailyHours,
	)
	if err != nil {
		return nil, fmt.Errorf("set working hours: %w", err)
	}
	return s.GetWorkingHours(userID)
}

func (s *SettingsStore) GetNotificationSettings(userID int64) (*model.NotificationSettings, error) {
	var ns model.NotificationSettings
	err := s.db.QueryRow(`
		SELECT user_id, email_enabled, push_enabled, weekly_summary, updated_at
		FROM notification_settings WHERE user_id = ?`,
		userID,
	).Scan(&ns.UserID, &ns.EmailEnabled, &ns.PushEnabled, &ns.WeeklySummary, &ns.UpdatedAt)
	if err == sql.ErrNoRows {
		return &model.NotificationSettings{
			UserID:       userID,
			EmailEnabled: true,
			PushEnabled:  true,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get notification settings: %w", err)
	}
	return &ns, nil
}

func (s *SettingsStore) SetNotificationSettings(userID int64, emailEnabled, pushEnabled, weeklySummary bool) (*model.NotificationSettings, error) {
	_, err := s.db.Exec(`
		INSERT INTO notification_settings (user_id, email_enabled, push_enabled, weekly_summary)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			email_enabled = excluded.email_enabled,
			push_enabled = excluded.push_enabled,
			weekly_summary = excluded.weekly_summary,
			updated_at = CURRENT_TIMESTAMP`,
		userID, emailEnabled, pushEnabled, weeklySummary,
	)
	if err != nil {
		return nil, fmt.Errorf("set notification settings: %w", err)
	}
	return s.GetNotificationSettings(userID)
}

func (s *SettingsStore) GetEmergencyContact(userID int64) (*model.EmergencyContact, error) {
	var ec model.EmergencyContact
	err := s.db.QueryRow(`
		SELECT user_id, name, phone, relationship, updated_at
		FROM emergency_contacts WHERE user_id = ?`,
		userID,
	).Scan(&ec.UserID, &ec.Name, &ec.Phone, &ec.Relationship, &ec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get emergency contact: %w", err)
	}
	return &ec, nil
}

func (s *SettingsStore) SetEmergencyContact(userID int64, name, phone, relationship string) (*model.EmergencyContact, error) {
	_, err := s.db.Exec(`
		INSERT INTO emergency_contacts (user_id, name, phone, relationship)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			name = excluded.name,
			phone = excluded.phone,
			relationship = excluded.relationship,
			updated_at = CURRENT_TIMESTAMP`,
		userID, name, phone, relationship,
	)
	if err != nil {
		return nil, fmt.Errorf("set emergency contact: %w", err)
	}
	return s.GetEmergencyContact(userID)
}

// ListWeeklySummaryRecipients returns user ids that opted into the weekly
// summary email.
func (s *SettingsStore) ListWeeklySummaryRecipients() ([]int64, error) {
	rows, err := s.db.Query(`
		SELECT user_id FROM notification_settings
		WHERE weekly_summary = 1 AND email_enabled = 1`)
	if err != nil {
		return nil, fmt.Errorf("list weekly summary recipients: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
