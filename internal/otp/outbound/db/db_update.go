package db

import (
	"context"

	"github.com/otterhq/otter/internal/otp/entity"
	"github.com/otterhq/otter/internal/pkg/goerror"
)

const updateCounterSQL = `
UPDATE otp_records
SET counter = $2, updated_at = now()
WHERE id = $1 AND mode = $3 AND counter < $2
`

// UpdateCounter advances the stored counter. The compare-and-set predicate
// keeps the counter strictly increasing, so two concurrent verifies cannot
// both accept the same moving factor.
func (s *DB) UpdateCounter(ctx context.Context, id string, newCounter uint64) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateCounter")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, updateCounterSQL, id, int64(newCounter), int16(entity.ModeCounter))
	if err = s.mapError(err); err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		err = goerror.ErrConflict
		return err
	}

	return nil
}

const bindPrincipalSQL = `
UPDATE otp_records
SET linked_principal = $2, updated_at = now()
WHERE id = $1 AND (linked_principal IS NULL OR linked_principal = $2)
`

const getPrincipalSQL = `
SELECT linked_principal FROM otp_records WHERE id = $1
`

// BindPrincipal links a principal to the record. Re-binding the same
// principal is a no-op; a different principal is a conflict.
func (s *DB) BindPrincipal(ctx context.Context, id, principal string) (err error) {
	ctx, span := s.startSpan(ctx, "BindPrincipal")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, bindPrincipalSQL, id, principal)
	if err = s.mapError(err); err != nil {
		return err
	}

	if tag.RowsAffected() > 0 {
		return nil
	}

	var bound *string
	errGet := s.conn.QueryRow(ctx, getPrincipalSQL, id).Scan(&bound)
	if errGet = s.mapError(errGet); errGet != nil {
		err = errGet
		return err
	}

	err = goerror.ErrConflict
	return err
}
