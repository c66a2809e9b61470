package db

import (
	"context"

	"github.com/otterhq/otter/internal/otp/entity"
	"github.com/otterhq/otter/internal/pkg/secrecy"
)

const createRecordSQL = `
INSERT INTO otp_records (id, secret, mode, counter, interval_seconds, extra_claims)
VALUES ($1, $2, $3, $4, $5, $6)
`

func (s *DB) CreateRecord(ctx context.Context, in entity.Record) (err error) {
	ctx, span := s.startSpan(ctx, "CreateRecord")
	defer func() { s.endSpan(span, err) }()

	sealed, err := s.enc.EncryptString(in.Secret, secrecy.Scope{RecordID: in.ID})
	if err != nil {
		return err
	}

	_, err = s.conn.Exec(ctx, createRecordSQL,
		in.ID,
		sealed,
		int16(in.Mode),
		int64(in.Counter),
		int64(in.IntervalSeconds),
		in.ExtraClaims,
	)
	err = s.mapError(err)
	return err
}
