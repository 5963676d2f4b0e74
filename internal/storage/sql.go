package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Schema is shared by every SQL backend.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS captures (
		user_id     TEXT   NOT NULL,
		name        TEXT   NOT NULL,
		types       TEXT   NOT NULL,
		ivs         TEXT   NOT NULL,
		stats       TEXT   NOT NULL,
		moves       TEXT   NOT NULL,
		image       TEXT   NOT NULL DEFAULT '',
		captured_at BIGINT NOT NULL,
		PRIMARY KEY (user_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS balances (
		user_id TEXT   PRIMARY KEY,
		coins   BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS badges (
		user_id    TEXT    NOT NULL,
		badge_id   INTEGER NOT NULL,
		awarded_at BIGINT  NOT NULL,
		PRIMARY KEY (user_id, badge_id)
	)`,
}

// maxNameSuffix bounds the search for a free capture name.
const maxNameSuffix = 10000

// SQLStore implements Store on database/sql. Queries are written with '?'
// placeholders and rewritten by Bind for drivers that need another style.
type SQLStore struct {
	db   *sql.DB
	bind func(string) string
	now  func() time.Time
}

// NewSQLStore wraps an open handle and creates the schema. bind may be nil
// for drivers that accept '?'.
func NewSQLStore(ctx context.Context, db *sql.DB, bind func(string) string) (*SQLStore, error) {
	if bind == nil {
		bind = func(q string) string { return q }
	}
	s := &SQLStore{db: db, bind: bind, now: time.Now}
	for _, stmt := range Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return s, nil
}

// DollarPlaceholders rewrites '?' placeholders to $1, $2, ...
func DollarPlaceholders(q string) string {
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLStore) Captures(ctx context.Context, userID string) ([]Capture, error) {
	rows, err := s.db.QueryContext(ctx, s.bind(`
		SELECT name, types, ivs, stats, moves, image
		FROM captures
		WHERE user_id = ?
		ORDER BY captured_at, name`), userID)
	if err != nil {
		return nil, fmt.Errorf("list captures: %w", err)
	}
	defer rows.Close()

	var out []Capture
	for rows.Next() {
		var c Capture
		var types, ivs, stats, moves string
		if err := rows.Scan(&c.Name, &types, &ivs, &stats, &moves, &c.Image); err != nil {
			return nil, fmt.Errorf("scan capture: %w", err)
		}
		if err := decodeJSON(types, &c.Types, ivs, &c.IVs, stats, &c.Stats, moves, &c.Moves); err != nil {
			return nil, fmt.Errorf("decode capture %s: %w", c.Name, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) AddCapture(ctx context.Context, userID string, c Capture) (Capture, error) {
	base := strings.TrimSpace(c.Name)
	if base == "" {
		return Capture{}, errors.New("capture name is required")
	}
	fields, err := encodeJSON(c.Types, c.IVs, c.Stats, c.Moves)
	if err != nil {
		return Capture{}, err
	}
	at := s.now().UnixNano()

	for i := 1; i <= maxNameSuffix; i++ {
		name := base
		if i > 1 {
			name = base + strconv.Itoa(i)
		}
		res, err := s.db.ExecContext(ctx, s.bind(`
			INSERT INTO captures (user_id, name, types, ivs, stats, moves, image, captured_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (user_id, name) DO NOTHING`),
			userID, name, fields[0], fields[1], fields[2], fields[3], c.Image, at)
		if err != nil {
			return Capture{}, fmt.Errorf("insert capture: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 1 {
			c.Name = name
			return c, nil
		}
	}
	return Capture{}, fmt.Errorf("no free name for %s", base)
}

func (s *SQLStore) DeleteCapture(ctx context.Context, userID, name string) error {
	res, err := s.db.ExecContext(ctx, s.bind(`DELETE FROM captures WHERE user_id = ? AND name = ?`), userID, name)
	if err != nil {
		return fmt.Errorf("delete capture: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("capture %s: %w", name, ErrNotFound)
	}
	return nil
}

func (s *SQLStore) Balance(ctx context.Context, userID string) (int, error) {
	var coins int
	err := s.db.QueryRowContext(ctx, s.bind(`SELECT coins FROM balances WHERE user_id = ?`), userID).Scan(&coins)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return coins, nil
}

func (s *SQLStore) AddCoins(ctx context.Context, userID string, amount int) (int, error) {
	var coins int
	err := s.db.QueryRowContext(ctx, s.bind(`
		INSERT INTO balances (user_id, coins) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET coins = balances.coins + excluded.coins
		RETURNING coins`), userID, amount).Scan(&coins)
	if err != nil {
		return 0, fmt.Errorf("add coins: %w", err)
	}
	return coins, nil
}

func (s *SQLStore) AwardBadge(ctx context.Context, userID string, badge int) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.bind(`
		INSERT INTO badges (user_id, badge_id, awarded_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id, badge_id) DO NOTHING`), userID, badge, s.now().UnixNano())
	if err != nil {
		return false, fmt.Errorf("award badge: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("award badge: %w", err)
	}
	return n == 1, nil
}

func (s *SQLStore) Badges(ctx context.Context, userID string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, s.bind(`SELECT badge_id FROM badges WHERE user_id = ? ORDER BY badge_id`), userID)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan badge: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func encodeJSON(vs ...any) ([]string, error) {
	out := make([]string, len(vs))
	for i, v := range vs {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode capture: %w", err)
		}
		out[i] = string(b)
	}
	return out, nil
}

// decodeJSON takes (text, target) pairs.
func decodeJSON(pairs ...any) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := json.Unmarshal([]byte(pairs[i].(string)), pairs[i+1]); err != nil {
			return err
		}
	}
	return nil
}
