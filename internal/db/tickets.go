package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/kube-rca/workflow-tickets/internal/model"
)

const ticketColumns = `id, repo, status, error_message, run_url, occurrence_count, created_at, last_seen_at, updated_at`

// EnsureTicketSchema - tickets 테이블 생성 (없으면)
//
// tickets_repo_open_uidx: repo당 open 티켓 1개를 DB 레벨에서 보장 (조건부 insert)
func (db *Postgres) EnsureTicketSchema(ctx context.Context) error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS tickets (
			id TEXT PRIMARY KEY,
			repo TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'open',
			error_message TEXT NOT NULL DEFAULT '',
			run_url TEXT NOT NULL DEFAULT '',
			occurrence_count INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_seen_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
		`,
		`CREATE UNIQUE INDEX IF NOT EXISTS tickets_repo_open_uidx ON tickets(repo) WHERE status = 'open'`,
		`CREATE INDEX IF NOT EXISTS tickets_repo_status_idx ON tickets(repo, status)`,
		`CREATE INDEX IF NOT EXISTS tickets_updated_at_idx ON tickets(updated_at DESC)`,
	}

	for _, query := range queries {
		if _, err := db.Pool.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to ensure tickets schema: %w", err)
		}
	}
	return nil
}

// FindOpenTicketByRepo - repo의 open 티켓 조회 (없으면 nil, nil)
func (db *Postgres) FindOpenTicketByRepo(ctx context.Context, repo string) (*model.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE repo = $1 AND status = 'open'`

	ticket, err := scanTicket(db.Pool.QueryRow(ctx, query, repo))
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query open ticket: %w", err)
	}
	return ticket, nil
}

// CreateTicket - 신규 티켓 저장
// 같은 repo에 open 티켓이 이미 있으면 unique index 위반 → ErrTicketConflict
func (db *Postgres) CreateTicket(ctx context.Context, t model.Ticket) (*model.Ticket, error) {
	query := `
		INSERT INTO tickets (` + ticketColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + ticketColumns

	created, err := scanTicket(db.Pool.QueryRow(ctx, query,
		t.ID,
		t.Repo,
		string(t.Status),
		t.ErrorMessage,
		t.RunURL,
		t.OccurrenceCount,
		t.CreatedAt,
		t.LastSeenAt,
		t.UpdatedAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: repo=%s", ErrTicketConflict, t.Repo)
		}
		return nil, fmt.Errorf("failed to insert ticket: %w", err)
	}
	return created, nil
}

// BumpOccurrence - open 상태일 때만 occurrence_count + 1
// run_url은 항상 최신 이벤트 값으로 덮어씀 (빈 값 포함)
func (db *Postgres) BumpOccurrence(ctx context.Context, id string, now time.Time, runURL string) error {
	query := `
		UPDATE tickets
		SET occurrence_count = occurrence_count + 1,
			last_seen_at = $2,
			updated_at = $2,
			run_url = $3
		WHERE id = $1 AND status = 'open'
	`
	tag, err := db.Pool.Exec(ctx, query, id, now, runURL)
	if err != nil {
		return fmt.Errorf("failed to bump ticket occurrence: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: id=%s", ErrTicketNotFound, id)
	}
	return nil
}

// CloseTicket - open → done/superseded
// 이미 요청한 종료 상태면 no-op, 그 외에는 ErrTicketNotFound
func (db *Postgres) CloseTicket(ctx context.Context, id string, now time.Time, status model.TicketStatus) error {
	if !status.IsClosed() {
		return fmt.Errorf("invalid terminal status: %s", status)
	}

	tag, err := db.Pool.Exec(ctx, `
		UPDATE tickets
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = 'open'
	`, id, string(status), now)
	if err != nil {
		return fmt.Errorf("failed to close ticket: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var current string
	err = db.Pool.QueryRow(ctx, `SELECT status FROM tickets WHERE id = $1`, id).Scan(&current)
	if err != nil {
		if IsNoRows(err) {
			return fmt.Errorf("%w: id=%s", ErrTicketNotFound, id)
		}
		return fmt.Errorf("failed to read ticket status: %w", err)
	}
	if model.TicketStatus(current) == status {
		return nil
	}
	return fmt.Errorf("%w: id=%s status=%s", ErrTicketNotFound, id, current)
}

// GetTicket - ID로 단건 조회
func (db *Postgres) GetTicket(ctx context.Context, id string) (*model.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`

	ticket, err := scanTicket(db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, fmt.Errorf("%w: id=%s", ErrTicketNotFound, id)
		}
		return nil, fmt.Errorf("failed to query ticket: %w", err)
	}
	return ticket, nil
}

// ListTickets - 최신 updated_at 순 목록 조회
func (db *Postgres) ListTickets(ctx context.Context, f model.TicketFilter) ([]model.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if f.Repo != "" {
		args = append(args, f.Repo)
		clauses = append(clauses, "repo = $"+strconv.Itoa(len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		clauses = append(clauses, "status = $"+strconv.Itoa(len(args)))
	}
	args = append(args, f.Limit, f.Offset)

	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ` + strings.Join(clauses, " AND ") +
		` ORDER BY updated_at DESC, id LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickets: %w", err)
	}
	defer rows.Close()

	var list []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		list = append(list, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if list == nil {
		list = []model.Ticket{}
	}
	return list, nil
}

func scanTicket(row pgx.Row) (*model.Ticket, error) {
	var t model.Ticket
	var status string
	if err := row.Scan(
		&t.ID,
		&t.Repo,
		&status,
		&t.ErrorMessage,
		&t.RunURL,
		&t.OccurrenceCount,
		&t.CreatedAt,
		&t.LastSeenAt,
		&t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	t.Status = model.TicketStatus(status)
	t.CreatedAt = t.CreatedAt.UTC()
	t.LastSeenAt = t.LastSeenAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return &t, nil
}
