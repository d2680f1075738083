package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/request-workflow/internal/domain"
)

// ErrVersionConflict is returned when an optimistic version check fails.
var ErrVersionConflict = errors.New("request version conflict")

// RequestFilter captures listing parameters.
type RequestFilter struct {
	Stage    *domain.Stage
	HolderID *string
	Limit    int
	Offset   int
}

// RequestRepository encapsulates request persistence including history.
type RequestRepository interface {
	// Create inserts the request together with its initial history record
	// in one transaction.
	Create(ctx context.Context, request *domain.Request) error
	// UpdateFields persists title/content/priority/category changes only.
	UpdateFields(ctx context.Context, request *domain.Request) error
	// AppendForward atomically appends a history record and applies the
	// new status/holder, guarded by the expected version. Returns
	// ErrVersionConflict when the stored version moved.
	AppendForward(ctx context.Context, request *domain.Request, record *domain.ProcessRecord, expectedVersion int64) error
	GetByID(ctx context.Context, id string) (*domain.Request, error)
	List(ctx context.Context, filter RequestFilter) ([]domain.Request, error)
	Delete(ctx context.Context, id string) error
}

type requestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository instantiates a Postgres-backed repository.
func NewRequestRepository(pool *pgxpool.Pool) RequestRepository {
	return &requestRepository{pool: pool}
}

func (r *requestRepository) Create(ctx context.Context, request *domain.Request) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertRequest = `
        INSERT INTO requests (id, title, content, priority, category_id, status, current_holder_id, version, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9)`
	if _, err := tx.Exec(ctx, insertRequest,
		request.ID,
		request.Title,
		request.Content,
		request.Priority,
		request.CategoryID,
		request.Status,
		request.CurrentHolderID,
		request.Version,
		request.CreatedAt,
	); err != nil {
		return err
	}

	for _, record := range request.History {
		if err := insertRecord(ctx, tx, &record); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *requestRepository) UpdateFields(ctx context.Context, request *domain.Request) error {
	const query = `
        UPDATE requests SET title=$1, content=$2, priority=$3, category_id=$4, updated_at=NOW()
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query,
		request.Title,
		request.Content,
		request.Priority,
		request.CategoryID,
		request.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *requestRepository) AppendForward(ctx context.Context, request *domain.Request, record *domain.ProcessRecord, expectedVersion int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        UPDATE requests SET status=$1, current_holder_id=$2, version=version+1, updated_at=NOW()
        WHERE id=$3 AND version=$4`
	cmd, err := tx.Exec(ctx, query,
		request.Status,
		request.CurrentHolderID,
		request.ID,
		expectedVersion,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		// Either the id is unknown or another forward won the race.
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM requests WHERE id=$1)`, request.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return pgx.ErrNoRows
		}
		return ErrVersionConflict
	}

	if err := insertRecord(ctx, tx, record); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	const query = `
        SELECT id, title, content, priority, category_id, status, current_holder_id, version, created_at, updated_at
        FROM requests WHERE id=$1`
	var request domain.Request
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&request.ID,
		&request.Title,
		&request.Content,
		&request.Priority,
		&request.CategoryID,
		&request.Status,
		&request.CurrentHolderID,
		&request.Version,
		&request.CreatedAt,
		&request.UpdatedAt,
	); err != nil {
		return nil, err
	}
	history, err := r.listHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	request.History = history
	return &request, nil
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]domain.Request, error) {
	base := `SELECT id, title, content, priority, category_id, status, current_holder_id, version, created_at, updated_at
             FROM requests`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Stage != nil {
		args = append(args, *filter.Stage)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.HolderID != nil {
		args = append(args, *filter.HolderID)
		clauses = append(clauses, fmt.Sprintf("current_holder_id=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Request
	for rows.Next() {
		var request domain.Request
		if err := rows.Scan(
			&request.ID,
			&request.Title,
			&request.Content,
			&request.Priority,
			&request.CategoryID,
			&request.Status,
			&request.CurrentHolderID,
			&request.Version,
			&request.CreatedAt,
			&request.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, request)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		history, err := r.listHistory(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].History = history
	}
	return result, nil
}

func (r *requestRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM process_records WHERE request_id=$1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM duplicate_members WHERE request_id=$1`, id); err != nil {
		return err
	}
	cmd, err := tx.Exec(ctx, `DELETE FROM requests WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return tx.Commit(ctx)
}

func (r *requestRepository) listHistory(ctx context.Context, requestID string) ([]domain.ProcessRecord, error) {
	const query = `
        SELECT id, request_id, person_id, action_id, occurred_at
        FROM process_records WHERE request_id=$1 ORDER BY occurred_at, id`
	rows, err := r.pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []domain.ProcessRecord
	for rows.Next() {
		var record domain.ProcessRecord
		if err := rows.Scan(
			&record.ID,
			&record.RequestID,
			&record.PersonID,
			&record.ActionID,
			&record.Timestamp,
		); err != nil {
			return nil, err
		}
		history = append(history, record)
	}
	return history, rows.Err()
}

func insertRecord(ctx context.Context, tx pgx.Tx, record *domain.ProcessRecord) error {
	const query = `
        INSERT INTO process_records (id, request_id, person_id, action_id, occurred_at)
        VALUES ($1,$2,$3,$4,$5)`
	_, err := tx.Exec(ctx, query,
		record.ID,
		record.RequestID,
		record.PersonID,
		record.ActionID,
		record.Timestamp,
	)
	return err
}
