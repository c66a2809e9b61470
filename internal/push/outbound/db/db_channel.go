package db

import (
	"context"

	"github.com/otterhq/otter/internal/push/entity"
)

const upsertChannelSQL = `
INSERT INTO push_channels (principal, device_token)
VALUES ($1, $2)
ON CONFLICT (principal) DO UPDATE SET device_token = EXCLUDED.device_token, updated_at = now()
`

func (s *DB) UpsertChannel(ctx context.Context, ch entity.Channel) (err error) {
	ctx, span := s.startSpan(ctx, "UpsertChannel")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, upsertChannelSQL, ch.Principal, ch.DeviceToken)
	err = s.mapError(err)
	return err
}

const getChannelSQL = `
SELECT principal, device_token, created_at, updated_at
FROM push_channels
WHERE principal = $1
`

func (s *DB) GetChannel(ctx context.Context, principal string) (ch *entity.Channel, err error) {
	ctx, span := s.startSpan(ctx, "GetChannel")
	defer func() { s.endSpan(span, err) }()

	row := entity.Channel{}
	err = s.conn.QueryRow(ctx, getChannelSQL, principal).Scan(
		&row.Principal,
		&row.DeviceToken,
		&row.CreatedAt,
		&row.UpdatedAt,
	)
	if err = s.mapError(err); err != nil {
		return nil, err
	}

	return &row, nil
}
