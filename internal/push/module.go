package push

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/otterhq/otter/internal/pkg/clock"
	"github.com/otterhq/otter/internal/pkg/config"
	"github.com/otterhq/otter/internal/pkg/goroutine"
	"github.com/otterhq/otter/internal/pkg/hash"
	"github.com/otterhq/otter/internal/pkg/instrument"
	"github.com/otterhq/otter/internal/pkg/messaging"
	"github.com/otterhq/otter/internal/pkg/notifier"
	pkgotp "github.com/otterhq/otter/internal/pkg/otp"
	"github.com/otterhq/otter/internal/pkg/router"
	"github.com/otterhq/otter/internal/pkg/uid"
	"github.com/otterhq/otter/internal/pkg/validator"
	"github.com/otterhq/otter/internal/push/inbound"
	"github.com/otterhq/otter/internal/push/outbound/cache"
	"github.com/otterhq/otter/internal/push/outbound/callback"
	"github.com/otterhq/otter/internal/push/outbound/db"
	"github.com/otterhq/otter/internal/push/outbound/fcm"
	"github.com/otterhq/otter/internal/push/outbound/mq"
	"github.com/otterhq/otter/internal/push/usecase"
	"github.com/redis/go-redis/v9"
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	CacheConn  *redis.Client              `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Secrets    pkgotp.SecretGenerator     `validate:"required"`
	Notifier   notifier.Notifier          `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	dbPush := db.NewDB(dep.DBConn, dep.Instrument)
	cachePush := cache.NewCache(dep.CacheConn, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)
	sender := fcm.New(dep.Notifier, dep.Instrument)
	sink := callback.NewSink(
		dep.Config.GetString("modules.push.callback_url"),
		dep.Config.GetSecond("modules.push.callback_timeout_seconds"),
		dep.Instrument,
	)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        dbPush,
		RepoCache:     cachePush,
		RepoMessaging: repoMsg,
		Sender:        sender,
		Callback:      sink,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Secrets:       dep.Secrets,
		HMAC:          dep.HMAC,
		UID:           dep.UID,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
