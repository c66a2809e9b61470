package app

import (
	"log/slog"
	"os"

	"github.com/otterhq/otter/internal/otp"
	"github.com/otterhq/otter/internal/push"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.otp.enabled") {
		if err := otp.New(otp.Dependency{
			DBConn:     a.dbConn,
			Router:     a.router,
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			UUID:       a.uuid,
			Secrets:    a.secrets,
			Deriver:    a.deriver,
			Encryptor:  a.encryptor,
			Clock:      a.clock,
			Validator:  a.validator,
		}); err != nil {
			slog.Error("failed to init module otp", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.push.enabled") {
		if err := push.New(push.Dependency{
			DBConn:     a.dbConn,
			CacheConn:  a.cacheConn,
			Goroutine:  a.goroutine,
			Router:     a.router,
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			HMAC:       a.hmac,
			Secrets:    a.secrets,
			Notifier:   a.notifier,
			Clock:      a.clock,
			Validator:  a.validator,
		}); err != nil {
			slog.Error("failed to init module push", "error", err)
			os.Exit(1)
		}
	}
}
