package chatlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// ErrNotFound marks a missing manager record.
var ErrNotFound = errors.New("chatlog: not found")

type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists conversation turns and reads account managers. Turns are
// append-only from this service's perspective; nothing here edits history.
type Store struct {
	db     Querier
	tracer trace.Tracer
}

func NewStore(db Querier) *Store {
	if db == nil {
		return nil
	}
	return &Store{
		db:     db,
		tracer: otel.Tracer("ordersbot.internal.chatlog"),
	}
}

// Append records one conversation turn.
func (s *Store) Append(ctx context.Context, rec TurnRecord) error {
	ctx, span := s.tracer.Start(ctx, "chatlog.append")
	defer span.End()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	query := `
		INSERT INTO messages (client_id, client_phone, user_id, user_phone, direction, type, content, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := s.db.Exec(ctx, query,
		rec.ClientID, rec.ClientPhone, rec.UserID, rec.UserPhone,
		string(rec.Direction), rec.Type, rec.Content, rec.Timestamp,
	); err != nil {
		span.RecordError(err)
		return fmt.Errorf("chatlog: append turn: %w", err)
	}
	return nil
}

// RecentTurns returns the customer's trailing conversation window,
// oldest-first, at most limit turns.
func (s *Store) RecentTurns(ctx context.Context, clientID, limit int) ([]Turn, error) {
	ctx, span := s.tracer.Start(ctx, "chatlog.recent_turns")
	defer span.End()

	query := `
		SELECT direction, COALESCE(content, ''), timestamp
		FROM messages
		WHERE client_id = $1
		ORDER BY timestamp DESC
		LIMIT $2`
	rows, err := s.db.Query(ctx, query, clientID, limit)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("chatlog: recent turns: %w", err)
	}
	defer rows.Close()

	var newestFirst []Turn
	for rows.Next() {
		var t Turn
		var dir string
		if err := rows.Scan(&dir, &t.Content, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("chatlog: scan turn: %w", err)
		}
		t.Direction = Direction(dir)
		newestFirst = append(newestFirst, t)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("chatlog: recent turns: %w", err)
	}

	// Callers want chronological order.
	out := make([]Turn, len(newestFirst))
	for i, t := range newestFirst {
		out[len(out)-1-i] = t
	}
	return out, nil
}

// LatestReceived returns, per customer, the most recent received turn. The
// sweep uses this as its candidate set.
func (s *Store) LatestReceived(ctx context.Context) ([]TurnRecord, error) {
	ctx, span := s.tracer.Start(ctx, "chatlog.latest_received")
	defer span.End()

	query := `
		SELECT m.client_id, m.client_phone, COALESCE(m.user_id, 0), m.user_phone,
		       COALESCE(m.content, ''), m.timestamp
		FROM messages m
		JOIN (
			SELECT client_id, MAX(timestamp) AS latest
			FROM messages
			WHERE direction = 'received'
			GROUP BY client_id
		) latest ON latest.client_id = m.client_id AND latest.latest = m.timestamp
		WHERE m.direction = 'received'`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("chatlog: latest received: %w", err)
	}
	defer rows.Close()

	var out []TurnRecord
	for rows.Next() {
		rec := TurnRecord{Direction: DirectionReceived, Type: "text"}
		if err := rows.Scan(&rec.ClientID, &rec.ClientPhone, &rec.UserID, &rec.UserPhone,
			&rec.Content, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("chatlog: scan received turn: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("chatlog: latest received: %w", err)
	}
	return out, nil
}

// AnsweredAfter reports whether any sent turn exists for the customer
// strictly after ts.
func (s *Store) AnsweredAfter(ctx context.Context, clientID int, ts time.Time) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "chatlog.answered_after")
	defer span.End()

	query := `
		SELECT EXISTS (
			SELECT 1 FROM messages
			WHERE client_id = $1 AND direction = 'sent' AND timestamp > $2
		)`
	var answered bool
	if err := s.db.QueryRow(ctx, query, clientID, ts).Scan(&answered); err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("chatlog: answered after: %w", err)
	}
	return answered, nil
}
