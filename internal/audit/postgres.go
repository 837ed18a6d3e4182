package audit

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is the subset of pgx used by PostgresLog.
// Satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// Schema creates the audit table. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS workspace_audit_log (
	id          UUID PRIMARY KEY,
	action      TEXT NOT NULL,
	severity    TEXT NOT NULL,
	table_id    TEXT NOT NULL DEFAULT '',
	table_name  TEXT NOT NULL DEFAULT '',
	op          TEXT,
	revision    INTEGER NOT NULL DEFAULT 0,
	row_count   INTEGER NOT NULL DEFAULT 0,
	col_count   INTEGER NOT NULL DEFAULT 0,
	ip_address  INET,
	user_agent  TEXT,
	request_id  TEXT,
	detail      TEXT,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS workspace_audit_log_created_at_idx ON workspace_audit_log (created_at DESC);
CREATE INDEX IF NOT EXISTS workspace_audit_log_table_id_idx ON workspace_audit_log (table_id, created_at DESC);
`

const insertEntry = `INSERT INTO workspace_audit_log
	(id, action, severity, table_id, table_name, op, revision, row_count, col_count,
	 ip_address, user_agent, request_id, detail, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

const selectColumns = `SELECT id, action, severity, table_id, table_name, op, revision,
	row_count, col_count, ip_address, user_agent, request_id, detail, created_at
	FROM workspace_audit_log`

// PostgresLog persists entries to PostgreSQL.
type PostgresLog struct {
	db  DBTX
	now func() time.Time
}

// NewPostgresLog creates a log over db. Call EnsureSchema before first use.
func NewPostgresLog(db DBTX) *PostgresLog {
	return &PostgresLog{db: db, now: time.Now}
}

// EnsureSchema creates the audit table and indexes if they do not exist.
func (l *PostgresLog) EnsureSchema(ctx context.Context) error {
	if _, err := l.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create audit schema: %w", err)
	}
	return nil
}

// Record inserts a new entry.
func (l *PostgresLog) Record(ctx context.Context, p Params) (*Entry, error) {
	e := newEntry(ctx, p, l.now())

	_, err := l.db.Exec(ctx, insertEntry,
		toPgUUID(e.ID),
		string(e.Action),
		string(e.Severity),
		e.TableID,
		e.TableName,
		toPgText(e.Op),
		int32(e.Revision),
		int32(e.Rows),
		int32(e.Columns),
		toInet(e.IPAddress),
		toPgText(e.UserAgent),
		toPgText(e.RequestID),
		toPgText(e.Detail),
		pgtype.Timestamptz{Time: e.CreatedAt, Valid: true},
	)
	if err != nil {
		return nil, fmt.Errorf("insert audit entry: %w", err)
	}
	return e, nil
}

// Query returns matching entries, newest first.
func (l *PostgresLog) Query(ctx context.Context, f Filter) (*Result, error) {
	f = f.normalize()

	wb := NewWhereBuilder()
	wb.Add("table_id", f.TableID)
	wb.Add("action", string(f.Action))
	wb.Add("severity", string(f.Severity))
	wb.AddTimestampRange("created_at", f.Since, f.Until)
	where, args := wb.Build()

	var total int64
	if err := l.db.QueryRow(ctx, "SELECT COUNT(*) FROM workspace_audit_log"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count audit entries: %w", err)
	}

	query := selectColumns + where + fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		wb.NextArgIndex(), wb.NextArgIndex()+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := l.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read audit entries: %w", err)
	}

	return newResult(entries, total, f), nil
}

// Purge deletes entries created before the cutoff.
func (l *PostgresLog) Purge(ctx context.Context, before time.Time) (int64, error) {
	tag, err := l.db.Exec(ctx, "DELETE FROM workspace_audit_log WHERE created_at < $1",
		pgtype.Timestamptz{Time: before, Valid: true})
	if err != nil {
		return 0, fmt.Errorf("purge audit entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanEntry(row pgx.Row) (*Entry, error) {
	var (
		id        pgtype.UUID
		action    string
		severity  string
		tableID   string
		tableName string
		op        pgtype.Text
		revision  int32
		rowCount  int32
		colCount  int32
		ipAddress *netip.Addr
		userAgent pgtype.Text
		requestID pgtype.Text
		detail    pgtype.Text
		createdAt pgtype.Timestamptz
	)

	err := row.Scan(
		&id, &action, &severity, &tableID, &tableName, &op, &revision,
		&rowCount, &colCount, &ipAddress, &userAgent, &requestID, &detail, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	e := &Entry{
		ID:        pgUUIDToString(id),
		Action:    Action(action),
		Severity:  Severity(severity),
		TableID:   tableID,
		TableName: tableName,
		Op:        op.String,
		Revision:  int(revision),
		Rows:      int(rowCount),
		Columns:   int(colCount),
		UserAgent: userAgent.String,
		RequestID: requestID.String,
		Detail:    detail.String,
		CreatedAt: createdAt.Time,
	}
	if ipAddress != nil {
		e.IPAddress = ipAddress.String()
	}
	return e, nil
}

// toPgText converts a string to pgtype.Text; empty strings become NULL.
func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// toPgUUID converts a string to pgtype.UUID; invalid input becomes NULL.
func toPgUUID(s string) pgtype.UUID {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

func pgUUIDToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}

// toInet parses an address, stripping a port if present. Unparseable input
// becomes NULL.
func toInet(s string) *netip.Addr {
	if s == "" {
		return nil
	}
	host := s
	if h, _, err := net.SplitHostPort(s); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return nil
	}
	return &addr
}
