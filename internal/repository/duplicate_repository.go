package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DuplicateRepository persists duplicate-group membership. A request belongs
// to at most one group; membership rows map request id to group id.
type DuplicateRepository interface {
	// GroupID returns the group the request belongs to; ok is false when
	// the request is ungrouped.
	GroupID(ctx context.Context, requestID string) (string, bool, error)
	Members(ctx context.Context, groupID string) ([]string, error)
	// Assign places the request into the group, replacing any prior
	// membership.
	Assign(ctx context.Context, requestID, groupID string) error
	// Merge moves every member of fromGroup into toGroup.
	Merge(ctx context.Context, fromGroupID, toGroupID string) error
	// Remove deletes the request's membership; no-op when ungrouped.
	Remove(ctx context.Context, requestID string) error
}

type duplicateRepository struct {
	pool *pgxpool.Pool
}

// NewDuplicateRepository instantiates a Postgres-backed repository.
func NewDuplicateRepository(pool *pgxpool.Pool) DuplicateRepository {
	return &duplicateRepository{pool: pool}
}

func (r *duplicateRepository) GroupID(ctx context.Context, requestID string) (string, bool, error) {
	const query = `SELECT group_id FROM duplicate_members WHERE request_id=$1`
	var groupID string
	err := r.pool.QueryRow(ctx, query, requestID).Scan(&groupID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return groupID, true, nil
}

func (r *duplicateRepository) Members(ctx context.Context, groupID string) ([]string, error) {
	const query = `SELECT request_id FROM duplicate_members WHERE group_id=$1 ORDER BY request_id`
	rows, err := r.pool.Query(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		members = append(members, id)
	}
	return members, rows.Err()
}

func (r *duplicateRepository) Assign(ctx context.Context, requestID, groupID string) error {
	const query = `
        INSERT INTO duplicate_members (request_id, group_id)
        VALUES ($1,$2)
        ON CONFLICT (request_id) DO UPDATE SET group_id=EXCLUDED.group_id`
	_, err := r.pool.Exec(ctx, query, requestID, groupID)
	return err
}

func (r *duplicateRepository) Merge(ctx context.Context, fromGroupID, toGroupID string) error {
	const query = `UPDATE duplicate_members SET group_id=$1 WHERE group_id=$2`
	_, err := r.pool.Exec(ctx, query, toGroupID, fromGroupID)
	return err
}

func (r *duplicateRepository) Remove(ctx context.Context, requestID string) error {
	const query = `DELETE FROM duplicate_members WHERE request_id=$1`
	_, err := r.pool.Exec(ctx, query, requestID)
	return err
}
