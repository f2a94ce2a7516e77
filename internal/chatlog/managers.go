package chatlog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Manager is a human account manager ("comercial") the bot escalates to.
type Manager struct {
	ID    int
	Phone string
	Email string
	Name  string
	Role  string
}

const managerColumns = `id, phone, COALESCE(email, ''), COALESCE(name, ''), role`

// ManagerByPhone resolves a manager by exact phone match.
func (s *Store) ManagerByPhone(ctx context.Context, phone string) (Manager, error) {
	var m Manager
	err := s.db.QueryRow(ctx,
		`SELECT `+managerColumns+` FROM users WHERE phone = $1`, phone,
	).Scan(&m.ID, &m.Phone, &m.Email, &m.Name, &m.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return Manager{}, ErrNotFound
	}
	if err != nil {
		return Manager{}, fmt.Errorf("chatlog: manager by phone: %w", err)
	}
	return m, nil
}

// ManagerByPhoneFuzzy resolves a manager by digit-wise fuzzy phone match,
// falling back to a scan when the exact lookup misses. The manager table is
// small, so the scan is acceptable.
func (s *Store) ManagerByPhoneFuzzy(ctx context.Context, phone string) (Manager, error) {
	if m, err := s.ManagerByPhone(ctx, phone); err == nil {
		return m, nil
	} else if !errors.Is(err, ErrNotFound) {
		return Manager{}, err
	}

	target := DigitsOnly(phone)
	rows, err := s.db.Query(ctx, `SELECT `+managerColumns+` FROM users`)
	if err != nil {
		return Manager{}, fmt.Errorf("chatlog: manager scan: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m Manager
		if err := rows.Scan(&m.ID, &m.Phone, &m.Email, &m.Name, &m.Role); err != nil {
			return Manager{}, fmt.Errorf("chatlog: scan manager: %w", err)
		}
		if PhonesMatchFuzzy(m.Phone, target) {
			return m, nil
		}
	}
	if err := rows.Err(); err != nil {
		return Manager{}, fmt.Errorf("chatlog: manager scan: %w", err)
	}
	return Manager{}, ErrNotFound
}

// ManagerByID resolves a manager by primary key.
func (s *Store) ManagerByID(ctx context.Context, id int) (Manager, error) {
	var m Manager
	err := s.db.QueryRow(ctx,
		`SELECT `+managerColumns+` FROM users WHERE id = $1`, id,
	).Scan(&m.ID, &m.Phone, &m.Email, &m.Name, &m.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return Manager{}, ErrNotFound
	}
	if err != nil {
		return Manager{}, fmt.Errorf("chatlog: manager by id: %w", err)
	}
	return m, nil
}
