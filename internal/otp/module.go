package otp

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/otterhq/otter/internal/otp/inbound"
	"github.com/otterhq/otter/internal/otp/outbound/db"
	"github.com/otterhq/otter/internal/otp/outbound/mq"
	"github.com/otterhq/otter/internal/otp/usecase"
	"github.com/otterhq/otter/internal/pkg/clock"
	"github.com/otterhq/otter/internal/pkg/config"
	"github.com/otterhq/otter/internal/pkg/instrument"
	"github.com/otterhq/otter/internal/pkg/messaging"
	pkgotp "github.com/otterhq/otter/internal/pkg/otp"
	"github.com/otterhq/otter/internal/pkg/router"
	"github.com/otterhq/otter/internal/pkg/secrecy"
	"github.com/otterhq/otter/internal/pkg/uid"
	"github.com/otterhq/otter/internal/pkg/validator"
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Secrets    pkgotp.SecretGenerator     `validate:"required"`
	Deriver    pkgotp.Deriver             `validate:"required"`
	Encryptor  secrecy.Encryptor          `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	dbOtp := db.NewDB(dep.DBConn, dep.Encryptor, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        dbOtp,
		RepoMessaging: repoMsg,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Secrets:       dep.Secrets,
		Deriver:       dep.Deriver,
		UUID:          dep.UUID,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
