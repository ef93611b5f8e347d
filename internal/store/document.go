package store

import (
	"database/sql"
	"fmt"

	"github.com/clockit-hq/clockit/internal/model"
)

type DocumentStore struct {
	db *sql.DB
}

func NewDocumentStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

const documentCols = `id, title, description, object_key, file_name, file_type, file_size, category, uploaded_by, is_public, view_count, created_at, updated_at`

func scanDocument(scanner interface{ Scan(...any) error }) (*model.Document, error) {
	var d model.Document
	err := scanner.Scan(
		&d.ID, &d.Title, &d.Description, &d.ObjectKey,
		&d.FileName, &d.FileType, &d.FileSize, &d.Category,
		&d.UploadedBy, &d.IsPublic, &d.ViewCount,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *DocumentStore) Create(title, description, objectKey, fileName, fileType string, fileSize int64, category string, uploadedBy int64, isPublic bool) (*model.Document, error) {
	result, err := s.db.Exec(`
		INSERT INTO documents (title, description, object_key, file_name, file_type, file_size, category, uploaded_by, is_public)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		title, description, objectKey, fileName, fileType, fileSize, category, uploadedBy, isPublic,
	)
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get document id: %w", err)
	}
	return s.GetByID(id)
}

func (s *DocumentStore) GetByID(id int64) (*model.Document, error) {
	row := s.db.QueryRow(`SELECT `+documentCols+` FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// List returns documents visible to the user: public ones plus their own
// uploads. Admins see everything.
func (s *DocumentStore) List(userID int64, admin bool, category string) ([]*model.Document, error) {
	query := `
		SELECT ` + documentCols + ` FROM documents
		WHERE (? = '' OR category = ?)`
	args := []any{category, category}
	if !admin {
		query += ` AND (is_public = 1 OR uploaded_by = ?)`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	return collectDocuments(rows)
}

func (s *DocumentStore) IncrementViewCount(id int64) error {
	_, err := s.db.Exec(`
		UPDATE documents SET view_count = view_count + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("increment document views: %w", err)
	}
	return nil
}

func (s *DocumentStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

func collectDocuments(rows *sql.Rows) ([]*model.Document, error) {
	var docs []*model.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
