package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paperflow-ai/paperflow/internal/util"
	"github.com/paperflow-ai/paperflow/pkg/logger"
	"github.com/paperflow-ai/paperflow/pkg/workflow"
)

// PGXStore is the Postgres-backed Store. Components and relationships are
// stored as flat rows with a position column so extraction order survives a
// round trip; diagnostics and the per-component maps go into JSONB columns.
type PGXStore struct {
	conn *pgxpool.Pool
}

func NewPGXStore(conn *pgxpool.Pool) *PGXStore {
	return &PGXStore{conn: conn}
}

const createPaperSQL = `
INSERT INTO papers (id, title, filename, content_type, file_key, byte_size, status, uploaded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
`

func (s *PGXStore) CreatePaper(ctx context.Context, paper *workflow.Paper) error {
	_, err := s.conn.Exec(ctx, createPaperSQL,
		paper.ID,
		util.SanitizePostgresText(paper.Title),
		util.SanitizePostgresText(paper.Filename),
		paper.ContentType,
		paper.FileKey,
		paper.ByteSize,
		string(paper.Status),
		paper.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create paper: %w", err)
	}
	return nil
}

const getPaperSQL = `
SELECT id, title, overview, filename, content_type, file_key, byte_size, status,
       error_message, error_details, diagnostics, uploaded_at, completed_at
FROM papers
WHERE id = $1;
`

func (s *PGXStore) GetPaper(ctx context.Context, id string) (*workflow.Paper, error) {
	paper, err := scanPaper(s.conn.QueryRow(ctx, getPaperSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get paper: %w", err)
	}

	paper.Components, err = s.getComponents(ctx, id)
	if err != nil {
		return nil, err
	}
	paper.Relationships, err = s.getRelationships(ctx, id)
	if err != nil {
		return nil, err
	}
	return paper, nil
}

const listPapersSQL = `
SELECT id, title, overview, filename, content_type, file_key, byte_size, status,
       error_message, error_details, diagnostics, uploaded_at, completed_at
FROM papers
ORDER BY uploaded_at DESC, id;
`

// ListPapers returns paper metadata only; components and relationships are
// loaded per paper via GetPaper.
func (s *PGXStore) ListPapers(ctx context.Context) ([]workflow.Paper, error) {
	rows, err := s.conn.Query(ctx, listPapersSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to list papers: %w", err)
	}
	defer rows.Close()

	var papers []workflow.Paper
	for rows.Next() {
		paper, err := scanPaper(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan paper: %w", err)
		}
		papers = append(papers, *paper)
	}
	return papers, rows.Err()
}

func (s *PGXStore) DeletePaper(ctx context.Context, id string) error {
	tag, err := s.conn.Exec(ctx, `DELETE FROM papers WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("failed to delete paper: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const startRunSQL = `
UPDATE papers
SET status = 'processing',
    overview = '',
    error_message = '',
    error_details = NULL,
    diagnostics = NULL,
    completed_at = NULL
WHERE id = $1 AND status <> 'processing';
`

func (s *PGXStore) StartRun(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := s.conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM papers WHERE id = $1);`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check paper: %w", err)
	}
	if !exists {
		return false, ErrNotFound
	}

	tag, err := s.conn.Exec(ctx, startRunSQL, id)
	if err != nil {
		return false, fmt.Errorf("failed to claim paper: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	// Clear the previous run's output so a retry starts from a clean slate.
	if err := s.deleteGraphRows(ctx, s.conn, id); err != nil {
		return false, err
	}
	return true, nil
}

const updateDiagnosticsSQL = `
UPDATE papers
SET diagnostics = $2
WHERE id = $1;
`

// UpdateDiagnostics persists an in-flight run's diagnostics snapshot so the
// status endpoint can report per-stage progress while the worker is busy.
func (s *PGXStore) UpdateDiagnostics(ctx context.Context, id string, diags *workflow.Diagnostics) error {
	data, err := marshalJSONB(diags)
	if err != nil {
		return err
	}
	tag, err := s.conn.Exec(ctx, updateDiagnosticsSQL, id, data)
	if err != nil {
		return fmt.Errorf("failed to update diagnostics: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const completeRunSQL = `
UPDATE papers
SET title = $2,
    overview = $3,
    status = 'completed',
    diagnostics = $4,
    completed_at = now()
WHERE id = $1;
`

func (s *PGXStore) CompleteRun(ctx context.Context, params CompleteRunParams) error {
	diags, err := marshalJSONB(params.Diagnostics)
	if err != nil {
		return err
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			logger.Warn("[Store][CompleteRun] rollback failed", "error", err)
		}
	}()

	tag, err := tx.Exec(ctx, completeRunSQL,
		params.PaperID,
		util.SanitizePostgresText(params.Title),
		util.SanitizePostgresText(params.Overview),
		diags,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := s.deleteGraphRows(ctx, tx, params.PaperID); err != nil {
		return err
	}
	if err := s.insertComponents(ctx, tx, params.PaperID, params.Components); err != nil {
		return err
	}
	if err := s.insertRelationships(ctx, tx, params.PaperID, params.Relationships); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const failRunSQL = `
UPDATE papers
SET status = 'failed',
    error_message = $2,
    error_details = $3,
    diagnostics = $4,
    completed_at = now()
WHERE id = $1;
`

func (s *PGXStore) FailRun(ctx context.Context, params FailRunParams) error {
	var message string
	if params.StageError != nil {
		message = params.StageError.Message
	}
	details, err := marshalJSONB(params.StageError)
	if err != nil {
		return err
	}
	diags, err := marshalJSONB(params.Diagnostics)
	if err != nil {
		return err
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			logger.Warn("[Store][FailRun] rollback failed", "error", err)
		}
	}()

	tag, err := tx.Exec(ctx, failRunSQL, params.PaperID, util.SanitizePostgresText(message), details, diags)
	if err != nil {
		return fmt.Errorf("failed to fail run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := s.deleteGraphRows(ctx, tx, params.PaperID); err != nil {
		return err
	}
	if err := s.insertComponents(ctx, tx, params.PaperID, params.Components); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// pgxExecer is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgxExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (s *PGXStore) deleteGraphRows(ctx context.Context, conn pgxExecer, paperID string) error {
	if _, err := conn.Exec(ctx, `DELETE FROM relationships WHERE paper_id = $1;`, paperID); err != nil {
		return fmt.Errorf("failed to delete relationships: %w", err)
	}
	if _, err := conn.Exec(ctx, `DELETE FROM components WHERE paper_id = $1;`, paperID); err != nil {
		return fmt.Errorf("failed to delete components: %w", err)
	}
	return nil
}

const insertComponentSQL = `
INSERT INTO components (id, paper_id, type, name, description, source_section,
                        source_page, details, metrics, importance, is_novel, parent, position)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
`

func (s *PGXStore) insertComponents(ctx context.Context, conn pgxExecer, paperID string, components []workflow.Component) error {
	for i, component := range components {
		details, err := marshalJSONB(component.Details)
		if err != nil {
			return err
		}
		metrics, err := marshalJSONB(component.Metrics)
		if err != nil {
			return err
		}
		_, err = conn.Exec(ctx, insertComponentSQL,
			component.ID,
			paperID,
			string(component.Type),
			util.SanitizePostgresText(component.Name),
			util.SanitizePostgresText(component.Description),
			util.SanitizePostgresText(component.SourceSection),
			component.SourcePage,
			details,
			metrics,
			component.Importance,
			component.IsNovel,
			component.Parent,
			i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert component %s: %w", component.ID, err)
		}
	}
	return nil
}

const insertRelationshipSQL = `
INSERT INTO relationships (id, paper_id, source_id, target_id, type, description, position)
VALUES ($1, $2, $3, $4, $5, $6, $7);
`

func (s *PGXStore) insertRelationships(ctx context.Context, conn pgxExecer, paperID string, relationships []workflow.Relationship) error {
	for i, rel := range relationships {
		_, err := conn.Exec(ctx, insertRelationshipSQL,
			rel.ID,
			paperID,
			rel.SourceID,
			rel.TargetID,
			string(rel.Type),
			util.SanitizePostgresText(rel.Description),
			i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert relationship %s: %w", rel.ID, err)
		}
	}
	return nil
}

const getComponentsSQL = `
SELECT id, type, name, description, source_section, source_page,
       details, metrics, importance, is_novel, parent
FROM components
WHERE paper_id = $1
ORDER BY position;
`

func (s *PGXStore) getComponents(ctx context.Context, paperID string) ([]workflow.Component, error) {
	rows, err := s.conn.Query(ctx, getComponentsSQL, paperID)
	if err != nil {
		return nil, fmt.Errorf("failed to get components: %w", err)
	}
	defer rows.Close()

	var components []workflow.Component
	for rows.Next() {
		var component workflow.Component
		var details, metrics []byte
		err := rows.Scan(
			&component.ID,
			&component.Type,
			&component.Name,
			&component.Description,
			&component.SourceSection,
			&component.SourcePage,
			&details,
			&metrics,
			&component.Importance,
			&component.IsNovel,
			&component.Parent,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan component: %w", err)
		}
		if err := unmarshalJSONB(details, &component.Details); err != nil {
			return nil, err
		}
		if err := unmarshalJSONB(metrics, &component.Metrics); err != nil {
			return nil, err
		}
		components = append(components, component)
	}
	return components, rows.Err()
}

const getRelationshipsSQL = `
SELECT id, source_id, target_id, type, description
FROM relationships
WHERE paper_id = $1
ORDER BY position;
`

func (s *PGXStore) getRelationships(ctx context.Context, paperID string) ([]workflow.Relationship, error) {
	rows, err := s.conn.Query(ctx, getRelationshipsSQL, paperID)
	if err != nil {
		return nil, fmt.Errorf("failed to get relationships: %w", err)
	}
	defer rows.Close()

	var relationships []workflow.Relationship
	for rows.Next() {
		var rel workflow.Relationship
		err := rows.Scan(&rel.ID, &rel.SourceID, &rel.TargetID, &rel.Type, &rel.Description)
		if err != nil {
			return nil, fmt.Errorf("failed to scan relationship: %w", err)
		}
		relationships = append(relationships, rel)
	}
	return relationships, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPaper(row rowScanner) (*workflow.Paper, error) {
	var paper workflow.Paper
	var errDetails, diags []byte
	err := row.Scan(
		&paper.ID,
		&paper.Title,
		&paper.Overview,
		&paper.Filename,
		&paper.ContentType,
		&paper.FileKey,
		&paper.ByteSize,
		&paper.Status,
		&paper.ErrorMessage,
		&errDetails,
		&diags,
		&paper.UploadedAt,
		&paper.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(errDetails, &paper.ErrorDetails); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(diags, &paper.Diagnostics); err != nil {
		return nil, err
	}
	return &paper, nil
}

func marshalJSONB(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal jsonb value: %w", err)
	}
	if string(data) == "null" {
		return nil, nil
	}
	return data, nil
}

func unmarshalJSONB(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal jsonb value: %w", err)
	}
	return nil
}
