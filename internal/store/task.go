package store

import (
	"database/sql"
	"fmt"

	"github.com/clockit-hq/clockit/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

const taskCols = `id, time_log_id, user_id, project_id, description, duration, created_at, updated_at`

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	err := scanner.Scan(
		&t.ID, &t.TimeLogID, &t.UserID, &t.ProjectID,
		&t.Description, &t.Duration, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *TaskStore) Create(timeLogID, userID int64, projectID *int64, description string, duration int) (*model.Task, error) {
	result, err := s.db.Exec(`
		INSERT INTO tasks (time_log_id, user_id, project_id, description, duration)
		VALUES (?, ?, ?, ?, ?)`,
		timeLogID, userID, projectID, description, duration,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get task id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) GetByID(id int64) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

func (s *TaskStore) ListByTimeLog(timeLogID int64) ([]*model.Task, error) {
	rows, err := s.db.Query(`
		SELECT `+taskCols+` FROM tasks
		WHERE time_log_id = ?
		ORDER BY created_at`,
		timeLogID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks by time log: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (s *TaskStore) ListByUser(userID int64, limit int) ([]*model.Task, error) {
	rows, err := s.db.Query(`
		SELECT `+taskCols+` FROM tasks
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks by user: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (s *TaskStore) Update(id int64, projectID *int64, description string, duration int) (*model.Task, error) {
	_, err := s.db.Exec(`
		UPDATE tasks
		SET project_id = ?, description = ?, duration = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		projectID, description, duration, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// SumDurationByTimeLog returns the total minutes logged to tasks on a record.
func (s *TaskStore) SumDurationByTimeLog(timeLogID int64) (int, error) {
	var total int
	err := s.db.QueryRow(`
		SELECT COALESCE(SUM(duration), 0) FROM tasks WHERE time_log_id = ?`,
		timeLogID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum task durations: %w", err)
	}
	return total, nil
}

func collectTasks(rows *sql.Rows) ([]*model.Task, error) {
	var tasks []*model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}
