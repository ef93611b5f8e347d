package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/clockit-hq/clockit/internal/model"
)

type ProjectStore struct {
	db *sql.DB
}

func NewProjectStore(db *sql.DB) *ProjectStore {
	return &ProjectStore{db: db}
}

const projectCols = `id, title, description, status, priority, start_date, end_date, budget, tags, owner_id, created_at, updated_at`

func scanProject(scanner interface{ Scan(...any) error }) (*model.Project, error) {
	var p model.Project
	err := scanner.Scan(
		&p.ID, &p.Title, &p.Description, &p.Status, &p.Priority,
		&p.StartDate, &p.EndDate, &p.Budget, &p.Tags, &p.OwnerID,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProjectStore) Create(title, description, status, priority string, startDate, endDate *time.Time, budget float64, tags string, ownerID *int64) (*model.Project, error) {
	if startDate != nil {
		t := startDate.UTC()
		startDate = &t
	}
	if endDate != nil {
		t := endDate.UTC()
		endDate = &t
	}
	result, err := s.db.Exec(`
		INSERT INTO projects (title, description, status, priority, start_date, end_date, budget, tags, owner_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		title, description, status, priority, startDate, endDate, budget, tags, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get project id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ProjectStore) GetByID(id int64) (*model.Project, error) {
	row := s.db.QueryRow(`SELECT `+projectCols+` FROM projects WHERE id = ?`, id)
	project, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if err := s.loadMembers(project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectStore) List(status string) ([]*model.Project, error) {
	rows, err := s.db.Query(`
		SELECT `+projectCols+` FROM projects
		WHERE (? = '' OR status = ?)
		ORDER BY created_at DESC`,
		status, status,
	)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects, err := collectProjects(rows)
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		if err := s.loadMembers(p); err != nil {
			return nil, err
		}
	}
	return projects, nil
}

// ListByMember returns projects the user owns or is a member of.
func (s *ProjectStore) ListByMember(userID int64) ([]*model.Project, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT p.id, p.title, p.description, p.status, p.priority, p.start_date, p.end_date, p.budget, p.tags, p.owner_id, p.created_at, p.updated_at
		FROM projects p
		LEFT JOIN project_members pm ON pm.project_id = p.id
		WHERE p.owner_id = ? OR pm.user_id = ?
		ORDER BY p.created_at DESC`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list projects by member: %w", err)
	}
	defer rows.Close()

	projects, err := collectProjects(rows)
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		if err := s.loadMembers(p); err != nil {
			return nil, err
		}
	}
	return projects, nil
}

func (s *ProjectStore) Update(id int64, title, description, status, priority string, startDate, endDate *time.Time, budget float64, tags string) (*model.Project, error) {
	if startDate != nil {
		t := startDate.UTC()
		startDate = &t
	}
	if endDate != nil {
		t := endDate.UTC()
		endDate = &t
	}
	_, err := s.db.Exec(`
		UPDATE projects
		SET title = ?, description = ?, status = ?, priority = ?, start_date = ?, end_date = ?, budget = ?, tags = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		title, description, status, priority, startDate, endDate, budget, tags, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return s.GetByID(id)
}

func (s *ProjectStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

// SetMembers replaces the project's member list.
func (s *ProjectStore) SetMembers(projectID int64, userIDs []int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin set members: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM project_members WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("clear project members: %w", err)
	}
	for _, uid := range userIDs {
		if _, err := tx.Exec(`
			INSERT INTO project_members (project_id, user_id) VALUES (?, ?)`,
			projectID, uid,
		); err != nil {
			return fmt.Errorf("insert project member: %w", err)
		}
	}
	return tx.Commit()
}

func (s *ProjectStore) loadMembers(p *model.Project) error {
	rows, err := s.db.Query(`
		SELECT user_id FROM project_members WHERE project_id = ? ORDER BY user_id`,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("load project members: %w", err)
	}
	defer rows.Close()

	p.MemberIDs = nil
	for rows.Next() {
		var uid int64
		if err := rows.Scan(&uid); err != nil {
			return fmt.Errorf("scan project member: %w", err)
		}
		p.MemberIDs = append(p.MemberIDs, uid)
	}
	return rows.Err()
}

func collectProjects(rows *sql.Rows) ([]*model.Project, error) {
	var projects []*model.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}
