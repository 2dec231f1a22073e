package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const historySchema = `
create table if not exists cycles (
	seq         integer primary key autoincrement,
	id          text not null unique,
	command     text not null,
	cycle       integer not null,
	status      text not null,
	message     text not null,
	balance     text not null,
	units       text not null,
	error       text not null,
	snapshot    text not null,
	started_at  integer not null,
	finished_at integer not null
);`

// History keeps every result in a sqlite database.
type History struct {
	db *sql.DB
}

// OpenHistory opens (creating if needed) the database at path. ":memory:"
// works for a throwaway history.
func OpenHistory(path string) (*History, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open: %w", err)
	}
	// one connection so ":memory:" is a single database
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: schema: %w", err)
	}
	return &History{db: db}, nil
}

func (h *History) Name() string { return "history" }

func (h *History) Write(ctx context.Context, r Result) error {
	units, err := json.Marshal(r.Units)
	if err != nil {
		return fmt.Errorf("history: marshal units: %w", err)
	}
	_, err = h.db.ExecContext(ctx,
		`insert into cycles (id, command, cycle, status, message, balance, units, error, snapshot, started_at, finished_at)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Command, r.Cycle, string(r.Status), r.Message, r.Balance, string(units),
		r.Error, r.Snapshot, r.StartedAt.UnixMilli(), r.FinishedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("history: insert: %w", err)
	}
	return nil
}

// Recent returns up to limit results, oldest first.
func (h *History) Recent(ctx context.Context, limit int) ([]Result, error) {
	rows, err := h.db.QueryContext(ctx,
		`select id, command, cycle, status, message, balance, units, error, snapshot, started_at, finished_at
		from (select * from cycles order by seq desc limit ?) order by seq asc`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var (
			r                 Result
			status, units     string
			started, finished int64
		)
		if err := rows.Scan(&r.ID, &r.Command, &r.Cycle, &status, &r.Message, &r.Balance,
			&units, &r.Error, &r.Snapshot, &started, &finished); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		r.Status = Status(status)
		if err := json.Unmarshal([]byte(units), &r.Units); err != nil {
			return nil, fmt.Errorf("history: units of %s: %w", r.ID, err)
		}
		r.StartedAt = time.UnixMilli(started).UTC()
		r.FinishedAt = time.UnixMilli(finished).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (h *History) Close() error {
	return h.db.Close()
}
