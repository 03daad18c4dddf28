package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mrsinham/radtech/internal/config"
	"github.com/mrsinham/radtech/internal/db"
	"github.com/mrsinham/radtech/internal/logging"
	"github.com/mrsinham/radtech/internal/protocol"
	"github.com/mrsinham/radtech/internal/selection"
	"github.com/mrsinham/radtech/internal/server"
	"go.uber.org/zap"
)

func runServe(args []string) error {
	fs := flag.NewFlagSet("radtech serve", flag.ContinueOnError)
	addr := fs.String("addr", "", "Listen address (overrides RADTECH_ADDR)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.FromEnv()
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Fields: map[string]string{"service": "radtech", "version": version},
	})
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := protocol.Resolve(cfg.Protocol)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	srv, err := server.New(server.Options{
		Protocol:      p,
		Store:         store,
		Logger:        logger,
		JWTSecret:     cfg.JWTSecret,
		AdminUser:     cfg.AdminUser,
		AdminPassHash: cfg.AdminPassHash,
		CORSOrigins:   cfg.CORSOrigins,
	})
	if err != nil {
		return err
	}

	logger.Info("starting",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("selection_store", cfg.SelectionStore),
		zap.Bool("protocol_upload", cfg.AdminEnabled()),
	)
	return srv.ListenAndServe(ctx, cfg.HTTPAddr)
}

// openStore builds the configured selection store. The returned func
// releases its resources.
func openStore(ctx context.Context, cfg config.Config) (selection.Store, func(), error) {
	switch cfg.SelectionStore {
	case config.StoreMemory:
		return selection.NewMemoryStore(), func() {}, nil
	case config.StoreFile:
		return selection.NewFileStore(cfg.SelectionDir), func() {}, nil
	case config.StoreSQL:
		driver, err := db.ParseDriver(cfg.DBDriver)
		if err != nil {
			return nil, nil, err
		}
		conn, err := db.Open(ctx, driver, cfg.DBDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open selection database: %w", err)
		}
		return selection.NewSQLStore(conn), func() { closeDB(conn) }, nil
	default:
		return nil, nil, fmt.Errorf("invalid selection store: %s (valid: %s, %s, %s)",
			cfg.SelectionStore, config.StoreMemory, config.StoreFile, config.StoreSQL)
	}
}

func closeDB(conn *sql.DB) {
	_ = conn.Close()
}
