package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/otterhq/otter/internal/pkg/clock"
	"github.com/otterhq/otter/internal/pkg/config"
	"github.com/otterhq/otter/internal/pkg/goerror"
	"github.com/otterhq/otter/internal/pkg/goroutine"
	"github.com/otterhq/otter/internal/pkg/hash"
	"github.com/otterhq/otter/internal/pkg/instrument"
	"github.com/otterhq/otter/internal/pkg/otp"
	"github.com/otterhq/otter/internal/pkg/uid"
	"github.com/otterhq/otter/internal/pkg/validator"
	"github.com/otterhq/otter/internal/push/entity"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/trace"
)

// PushDeliveryEvent announces a confirmation send or decision.
type PushDeliveryEvent struct {
	DeliveryID int64
	RecordID   string
	Principal  string
	Status     string
}

type repoMessaging interface {
	PublishPushDelivery(ctx context.Context, msg PushDeliveryEvent) error
}

type repoDB interface {
	BindPrincipal(ctx context.Context, recordID, principal string) error
	GetRecordPrincipal(ctx context.Context, recordID string) (string, error)
	UpsertChannel(ctx context.Context, ch entity.Channel) error
	GetChannel(ctx context.Context, principal string) (*entity.Channel, error)
	CreateDelivery(ctx context.Context, d entity.Delivery) error
	UpdateDeliveryStatus(ctx context.Context, id int64, status entity.DeliveryStatus) error
}

type repoCache interface {
	SetPendingCode(ctx context.Context, principal string, pc entity.PendingCode, ttl time.Duration) error
	GetPendingCode(ctx context.Context, principal string) (*entity.PendingCode, error)
	TakePendingCode(ctx context.Context, principal string, deliveryID int64) (*entity.PendingCode, error)
}

type sender interface {
	Send(ctx context.Context, ch entity.Channel, code string) error
}

type callback interface {
	Report(ctx context.Context, httpCode int) error
}

type Usecase struct {
	repoDB        repoDB
	repoCache     repoCache
	repoMessaging repoMessaging
	sender        sender
	callback      callback
	validator     validator.Validator
	cfg           config.Config
	secrets       otp.SecretGenerator
	hmac          hash.Hash
	uid           uid.NumberID
	clock         clock.Clocker
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager
}

type Dependency struct {
	RepoDB        repoDB
	RepoCache     repoCache
	RepoMessaging repoMessaging
	Sender        sender
	Callback      callback
	Validator     validator.Validator
	Config        config.Config
	Secrets       otp.SecretGenerator
	HMAC          hash.Hash
	UID           uid.NumberID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoCache:     dep.RepoCache,
		repoMessaging: dep.RepoMessaging,
		sender:        dep.Sender,
		callback:      dep.Callback,
		validator:     dep.Validator,
		cfg:           dep.Config,
		secrets:       dep.Secrets,
		hmac:          dep.HMAC,
		uid:           dep.UID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("push.usecase").Start(ctx, name)
}

func (s *Usecase) referCodeTTL() time.Duration {
	if d := s.cfg.GetSecond("modules.push.refer_code_ttl_seconds"); d > 0 {
		return d
	}
	return 5 * time.Minute
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

func (s *Usecase) publishDelivery(ctx context.Context, d *entity.Delivery) {
	err := s.repoMessaging.PublishPushDelivery(ctx, PushDeliveryEvent{
		DeliveryID: d.ID,
		RecordID:   d.RecordID,
		Principal:  d.Principal,
		Status:     d.Status.String(),
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to publish push delivery event", "delivery_id", d.ID, "error", err)
	}
}
