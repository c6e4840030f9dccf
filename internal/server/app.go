// Package server wires configuration, storage and the auth service
// together and runs the gRPC front-end until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/mfa"
	"github.com/dmitrijs2005/gophauth/internal/server/password"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/dmitrijs2005/gophauth/internal/server/store"
	_ "github.com/jackc/pgx/v5/stdlib"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
)

const signingKeySize = 32

// openDB is a seam for tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	authService *services.AuthService
}

// NewApp connects to the database, applies migrations when configured and
// builds the auth service.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, st, err := OpenStore(ctx, c)
	if err != nil {
		return nil, err
	}

	svc, err := NewAuthService(ctx, c, st, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &App{config: c, logger: logger, db: db, authService: svc}, nil
}

// OpenStore opens and pings the database, runs migrations when configured
// and returns a PostgreSQL-backed credential store. The caller owns db.
func OpenStore(ctx context.Context, c *config.Config) (*sql.DB, store.CredentialStore, error) {
	box, err := cryptox.NewSecretBoxFromHex(c.MFAEncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("mfa encryption key: %w", err)
	}

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager(box)
	if c.MigrateOnStart {
		if err := rm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrations error: %w", err)
		}
	}

	return db, store.NewPostgresStore(db, rm), nil
}

// NewAuthService assembles the auth service over st from configuration.
// The signing key is fixed here for the life of the process.
func NewAuthService(ctx context.Context, c *config.Config, st store.CredentialStore, logger logging.Logger) (*services.AuthService, error) {
	hasher, err := password.NewArgon2(password.DefaultArgon2Config())
	if err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenService(signingKey(ctx, c.SecretKey, logger), c.TokenValidityDuration)
	if err != nil {
		return nil, err
	}

	return services.NewAuthService(st, hasher, mfa.NewProvisioner(), tokens,
		services.WithLogger(logger),
		services.WithMFAIssuer(c.MFAIssuer),
	), nil
}

// signingKey returns the configured key, or a random one when none is set.
// A random key invalidates every token on restart.
func signingKey(ctx context.Context, configured string, logger logging.Logger) []byte {
	if configured != "" {
		return []byte(configured)
	}
	logger.Warn(ctx, "no secret key configured, using a random signing key; tokens will not survive a restart")
	return common.GenerateRandByteArray(signingKeySize)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.authService)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
