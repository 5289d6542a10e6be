package persist

import (
	"context"
	"fmt"
	"time"
)

// ChatRow is one logged chat line.
type ChatRow struct {
	Username string
	Message  string
	IP       string
	SentAt   time.Time
}

type ChatRepo struct {
	db *DB
}

func NewChatRepo(db *DB) *ChatRepo {
	return &ChatRepo{db: db}
}

func (r *ChatRepo) Insert(ctx context.Context, row ChatRow) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO chat_messages (username, message, ip_address, sent_at)
		 VALUES ($1, $2, $3, $4)`,
		row.Username, row.Message, row.IP, row.SentAt,
	)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

// Recent returns the newest chat lines, newest first.
func (r *ChatRepo) Recent(ctx context.Context, limit int) ([]ChatRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT username, message, ip_address, sent_at
		 FROM chat_messages ORDER BY sent_at DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChatRow
	for rows.Next() {
		var c ChatRow
		if err := rows.Scan(&c.Username, &c.Message, &c.IP, &c.SentAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// FailedLoginRow is one rejected admin login.
type FailedLoginRow struct {
	Username    string
	IP          string
	AttemptedAt time.Time
}

type LoginRepo struct {
	db *DB
}

func NewLoginRepo(db *DB) *LoginRepo {
	return &LoginRepo{db: db}
}

func (r *LoginRepo) Insert(ctx context.Context, row FailedLoginRow) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO failed_login_attempts (username, ip_address, attempted_at)
		 VALUES ($1, $2, $3)`,
		row.Username, row.IP, row.AttemptedAt,
	)
	if err != nil {
		return fmt.Errorf("insert failed login: %w", err)
	}
	return nil
}

// CountSince returns how many failed logins an address made since t.
func (r *LoginRepo) CountSince(ctx context.Context, ip string, t time.Time) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT count(*) FROM failed_login_attempts WHERE ip_address = $1 AND attempted_at >= $2`,
		ip, t,
	).Scan(&n)
	return n, err
}
