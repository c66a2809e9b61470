package db

import (
	"context"
	"time"

	"github.com/otterhq/otter/internal/otp/entity"
	"github.com/otterhq/otter/internal/pkg/secrecy"
	"github.com/otterhq/otter/internal/pkg/valueobject"
)

const getRecordSQL = `
SELECT id, secret, mode, counter, interval_seconds, linked_principal, extra_claims, created_at, updated_at
FROM otp_records
WHERE id = $1
`

func (s *DB) GetRecord(ctx context.Context, id string) (rec *entity.Record, err error) {
	ctx, span := s.startSpan(ctx, "GetRecord")
	defer func() { s.endSpan(span, err) }()

	var (
		mode            int16
		counter         int64
		intervalSeconds int64
		principal       *string
		claims          valueobject.JSONMap
		createdAt       time.Time
		updatedAt       time.Time
	)

	row := entity.Record{}
	err = s.conn.QueryRow(ctx, getRecordSQL, id).Scan(
		&row.ID,
		&row.Secret,
		&mode,
		&counter,
		&intervalSeconds,
		&principal,
		&claims,
		&createdAt,
		&updatedAt,
	)
	if err = s.mapError(err); err != nil {
		return nil, err
	}

	row.Secret, err = s.enc.DecryptString(row.Secret, secrecy.Scope{RecordID: row.ID})
	if err != nil {
		return nil, err
	}

	row.Mode = entity.Mode(mode)
	row.Counter = uint64(counter)
	row.IntervalSeconds = uint(intervalSeconds)
	if principal != nil {
		row.LinkedPrincipal = *principal
	}
	row.ExtraClaims = claims
	row.CreatedAt = createdAt
	row.UpdatedAt = updatedAt

	return &row, nil
}
