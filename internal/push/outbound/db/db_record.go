package db

import (
	"context"

	"github.com/otterhq/otter/internal/pkg/goerror"
)

const bindPrincipalSQL = `
UPDATE otp_records
SET linked_principal = $2, updated_at = now()
WHERE id = $1 AND (linked_principal IS NULL OR linked_principal = $2)
`

const getPrincipalSQL = `
SELECT linked_principal FROM otp_records WHERE id = $1
`

// BindPrincipal links a principal to an OTP record. Re-binding the same
// principal is a no-op; a different principal is a conflict.
func (s *DB) BindPrincipal(ctx context.Context, recordID, principal string) (err error) {
	ctx, span := s.startSpan(ctx, "BindPrincipal")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, bindPrincipalSQL, recordID, principal)
	if err = s.mapError(err); err != nil {
		return err
	}

	if tag.RowsAffected() > 0 {
		return nil
	}

	var bound *string
	errGet := s.conn.QueryRow(ctx, getPrincipalSQL, recordID).Scan(&bound)
	if errGet = s.mapError(errGet); errGet != nil {
		err = errGet
		return err
	}

	err = goerror.ErrConflict
	return err
}

// GetRecordPrincipal returns the principal bound to the record, empty when
// the record exists but is unbound.
func (s *DB) GetRecordPrincipal(ctx context.Context, recordID string) (principal string, err error) {
	ctx, span := s.startSpan(ctx, "GetRecordPrincipal")
	defer func() { s.endSpan(span, err) }()

	var bound *string
	err = s.conn.QueryRow(ctx, getPrincipalSQL, recordID).Scan(&bound)
	if err = s.mapError(err); err != nil {
		return "", err
	}

	if bound != nil {
		principal = *bound
	}
	return principal, nil
}
