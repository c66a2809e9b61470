package db

import (
	"context"

	"github.com/otterhq/otter/internal/push/entity"
)

const createDeliverySQL = `
INSERT INTO push_deliveries (id, record_id, principal, status, sent_at)
VALUES ($1, $2, $3, $4, $5)
`

func (s *DB) CreateDelivery(ctx context.Context, d entity.Delivery) (err error) {
	ctx, span := s.startSpan(ctx, "CreateDelivery")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, createDeliverySQL,
		d.ID,
		d.RecordID,
		d.Principal,
		int16(d.Status),
		d.SentAt,
	)
	err = s.mapError(err)
	return err
}

const updateDeliveryStatusSQL = `
UPDATE push_deliveries SET status = $2 WHERE id = $1
`

func (s *DB) UpdateDeliveryStatus(ctx context.Context, id int64, status entity.DeliveryStatus) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateDeliveryStatus")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, updateDeliveryStatusSQL, id, int16(status))
	err = s.mapError(err)
	return err
}
