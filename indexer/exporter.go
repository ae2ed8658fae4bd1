package indexer

import (
	"context"
	"fmt"
	"time"

	"cosmossdk.io/log"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/paw-chain/settlement/app"
	"github.com/paw-chain/settlement/x/settlement/types"
)

// Source yields audit records with seq >= fromSeq, at most limit of them.
type Source interface {
	AuditRecords(ctx context.Context, fromSeq uint64, limit int) ([]types.AuditRecord, error)
}

// AppSource reads committed audit records from an executor.
type AppSource struct {
	App *app.SettlementApp
}

// AuditRecords implements Source.
func (s AppSource) AuditRecords(ctx context.Context, fromSeq uint64, limit int) ([]types.AuditRecord, error) {
	var records []types.AuditRecord
	err := s.App.Query(ctx, func(ctx sdk.Context) error {
		var err error
		records, err = s.App.SettlementKeeper.GetAuditRecords(ctx, fromSeq, limit)
		return err
	})
	return records, err
}

// Config tunes the exporter loop.
type Config struct {
	Enabled     bool          `mapstructure:"enabled"`
	PostgresDSN string        `mapstructure:"postgres_dsn"`
	Interval    time.Duration `mapstructure:"interval"`
	BatchSize   int           `mapstructure:"batch_size"`
}

// DefaultConfig returns a disabled exporter polling every five seconds.
func DefaultConfig() Config {
	return Config{
		Interval:  5 * time.Second,
		BatchSize: 500,
	}
}

// Validate checks the exporter configuration.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.PostgresDSN == "" {
		return fmt.Errorf("postgres dsn is required when the exporter is enabled")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("exporter interval must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("exporter batch size must be positive")
	}
	return nil
}

// Exporter copies new audit records from a Source into a Sink. The cursor is
// recovered from the sink on start, so restarts resume where they stopped.
type Exporter struct {
	source Source
	sink   Sink
	config Config
	logger log.Logger

	cursor uint64
	loaded bool
}

// NewExporter creates an exporter.
func NewExporter(source Source, sink Sink, cfg Config, logger log.Logger) *Exporter {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	return &Exporter{
		source: source,
		sink:   sink,
		config: cfg,
		logger: logger.With("module", "indexer"),
	}
}

// Cursor returns the next sequence the exporter will request.
func (e *Exporter) Cursor() uint64 {
	return e.cursor
}

// SyncOnce exports every record available now and returns how many were
// written.
func (e *Exporter) SyncOnce(ctx context.Context) (int, error) {
	if !e.loaded {
		last, err := e.sink.LastSeq(ctx)
		if err != nil {
			return 0, err
		}
		e.cursor = last + 1
		e.loaded = true
	}

	total := 0
	for {
		records, err := e.source.AuditRecords(ctx, e.cursor, e.config.BatchSize)
		if err != nil {
			return total, fmt.Errorf("failed to read audit records from %d: %w", e.cursor, err)
		}
		if len(records) == 0 {
			return total, nil
		}
		if err := e.sink.Write(ctx, records); err != nil {
			return total, err
		}
		total += len(records)
		e.cursor = records[len(records)-1].Seq + 1
		if len(records) < e.config.BatchSize {
			return total, nil
		}
	}
}

// Run polls until ctx is cancelled. Failed rounds are logged and retried on
// the next tick.
func (e *Exporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.config.Interval)
	defer ticker.Stop()

	e.logger.Info("audit exporter started", "interval", e.config.Interval, "batch_size", e.config.BatchSize)
	for {
		n, err := e.SyncOnce(ctx)
		switch {
		case err != nil:
			e.logger.Error("audit export failed", "cursor", e.cursor, "error", err)
		case n > 0:
			e.logger.Debug("audit records exported", "count", n, "cursor", e.cursor)
		}

		select {
		case <-ctx.Done():
			e.logger.Info("audit exporter stopped", "cursor", e.cursor)
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
