package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/otterhq/otter/internal/pkg/clock"
	"github.com/otterhq/otter/internal/pkg/config"
	"github.com/otterhq/otter/internal/pkg/goroutine"
	"github.com/otterhq/otter/internal/pkg/hash"
	"github.com/otterhq/otter/internal/pkg/instrument"
	"github.com/otterhq/otter/internal/pkg/messaging"
	"github.com/otterhq/otter/internal/pkg/notifier"
	"github.com/otterhq/otter/internal/pkg/otp"
	"github.com/otterhq/otter/internal/pkg/router"
	"github.com/otterhq/otter/internal/pkg/secrecy"
	"github.com/otterhq/otter/internal/pkg/uid"
	"github.com/otterhq/otter/internal/pkg/validator"
	"github.com/redis/go-redis/v9"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	uid       uid.NumberID
	uuid      uid.StringID
	secrets   otp.SecretGenerator
	deriver   otp.Deriver
	encryptor secrecy.Encryptor

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	messaging messaging.Messaging
	notifier  notifier.Notifier

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initDatabase()
	app.initCache()
	app.initNotifier()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
