package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/otterhq/otter/internal/pkg/goerror"
	"github.com/otterhq/otter/internal/pkg/instrument"
	"github.com/otterhq/otter/internal/pkg/secrecy"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DB persists OTP records. Shared secrets are encrypted before they cross
// into the pool and decrypted on the way out; the column never holds a
// usable secret.
type DB struct {
	conn *pgxpool.Pool
	enc  secrecy.Encryptor
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, enc secrecy.Encryptor, ins instrument.Instrumentation) *DB {
	return &DB{
		conn: conn,
		enc:  enc,
		ins:  ins,
	}
}

// - 23505 unique violation → goerror.ErrConflict
// - no rows → goerror.ErrNotFound
// - deadline / pg timeout → goerror.ErrTimeout (retryable by the workflow)
func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return goerror.ErrTimeout
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("otp.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
