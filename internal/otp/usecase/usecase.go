package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/otterhq/otter/internal/otp/entity"
	"github.com/otterhq/otter/internal/pkg/clock"
	"github.com/otterhq/otter/internal/pkg/config"
	"github.com/otterhq/otter/internal/pkg/goerror"
	"github.com/otterhq/otter/internal/pkg/instrument"
	"github.com/otterhq/otter/internal/pkg/otp"
	"github.com/otterhq/otter/internal/pkg/uid"
	"github.com/otterhq/otter/internal/pkg/validator"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/trace"
)

// OtpGeneratedEvent announces a freshly created record.
type OtpGeneratedEvent struct {
	RecordID string
	Mode     string
}

// OtpVerifiedEvent announces the outcome of a verification attempt.
type OtpVerifiedEvent struct {
	RecordID string
	Mode     string
	Accepted bool
}

type repoMessaging interface {
	PublishOtpGenerated(ctx context.Context, msg OtpGeneratedEvent) error
	PublishOtpVerified(ctx context.Context, msg OtpVerifiedEvent) error
}

type repoDB interface {
	CreateRecord(ctx context.Context, in entity.Record) error
	GetRecord(ctx context.Context, id string) (*entity.Record, error)
	UpdateCounter(ctx context.Context, id string, newCounter uint64) error
	BindPrincipal(ctx context.Context, id, principal string) error
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	validator     validator.Validator
	cfg           config.Config
	secrets       otp.SecretGenerator
	deriver       otp.Deriver
	uuid          uid.StringID
	clock         clock.Clocker
	ins           instrument.Instrumentation
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Validator     validator.Validator
	Config        config.Config
	Secrets       otp.SecretGenerator
	Deriver       otp.Deriver
	UUID          uid.StringID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		validator:     dep.Validator,
		cfg:           dep.Config,
		secrets:       dep.Secrets,
		deriver:       dep.Deriver,
		uuid:          dep.UUID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("otp.usecase").Start(ctx, name)
}

func (s *Usecase) secretLength() int {
	if n := s.cfg.GetInt("modules.otp.secret_length"); n > 0 {
		return n
	}
	return otp.DefaultSecretLength
}

func (s *Usecase) lookAhead() uint64 {
	const maxLookAhead = 10

	n := s.cfg.GetInt64("modules.otp.hotp_look_ahead")
	if n < 0 {
		return 0
	}
	if n > maxLookAhead {
		return maxLookAhead
	}
	return uint64(n)
}

func (s *Usecase) skew() uint {
	n := s.cfg.GetInt64("modules.otp.totp_skew")
	if n < 0 || n > 4 {
		return 1
	}
	return uint(n)
}

// createRecord persists the record, replacing the id and retrying when the
// generated id already exists. Timeouts are retried once without any state
// left behind by the failed attempt.
func (s *Usecase) createRecord(ctx context.Context, rec *entity.Record) error {
	const maxIDAttempts = 3

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		err := s.retryOnTimeout(ctx, func(ctx context.Context) error {
			return s.repoDB.CreateRecord(ctx, *rec)
		})
		if errors.Is(err, goerror.ErrConflict) {
			slog.WarnContext(ctx, "record id collision, regenerating", "record_id", rec.ID)
			rec.ID = s.uuid.Generate()
			continue
		}
		return err
	}

	return goerror.ErrConflict
}

// retryOnTimeout runs op and retries it exactly once when the store reports
// a timeout. Every other error is final.
func (s *Usecase) retryOnTimeout(ctx context.Context, op func(ctx context.Context) error) error {
	b := retry.WithMaxRetries(1, retry.NewConstant(100*time.Millisecond))

	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := op(ctx)
		if errors.Is(err, goerror.ErrTimeout) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (s *Usecase) publishGenerated(ctx context.Context, rec *entity.Record) {
	err := s.repoMessaging.PublishOtpGenerated(ctx, OtpGeneratedEvent{
		RecordID: rec.ID,
		Mode:     rec.Mode.String(),
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to publish otp generated event", "record_id", rec.ID, "error", err)
	}
}

func (s *Usecase) publishVerified(ctx context.Context, recordID string, mode entity.Mode, accepted bool) {
	err := s.repoMessaging.PublishOtpVerified(ctx, OtpVerifiedEvent{
		RecordID: recordID,
		Mode:     mode.String(),
		Accepted: accepted,
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to publish otp verified event", "record_id", recordID, "error", err)
	}
}
