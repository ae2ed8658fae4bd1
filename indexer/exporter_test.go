package indexer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/settlement/indexer"
	"github.com/paw-chain/settlement/testutil/apptest"
	"github.com/paw-chain/settlement/x/settlement/types"
)

var hostAddr = apptest.Addr("host")

func registerHost(t *testing.T, ta *apptest.TestApp, host sdk.AccAddress) {
	t.Helper()
	_, err := ta.Deliver(context.Background(), "register_host", func(ctx sdk.Context) error {
		return ta.SettlementKeeper.RegisterHost(ctx, host, "gpu=h100", "https://host.example/v1",
			[]string{"llama-3-8b"}, math.NewInt(227_273), math.NewInt(2000))
	})
	require.NoError(t, err)
}

func TestExporterSyncsAndResumes(t *testing.T) {
	ctx := context.Background()
	ta := apptest.New(t, []sdk.AccAddress{hostAddr})
	registerHost(t, ta, hostAddr)

	sink := indexer.NewMemorySink()
	cfg := indexer.DefaultConfig()
	cfg.BatchSize = 1
	exporter := indexer.NewExporter(indexer.AppSource{App: ta.SettlementApp}, sink, cfg, log.NewNopLogger())

	n, err := exporter.SyncOnce(ctx)
	require.NoError(t, err)
	require.Positive(t, n)
	first := sink.Records()
	require.Len(t, first, n)
	for i, rec := range first {
		require.Equal(t, uint64(i+1), rec.Seq)
	}
	require.Equal(t, first[len(first)-1].Seq+1, exporter.Cursor())

	n, err = exporter.SyncOnce(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = ta.Deliver(ctx, "add_stake", func(ctx sdk.Context) error {
		return ta.SettlementKeeper.AddStake(ctx, hostAddr, math.NewInt(10))
	})
	require.NoError(t, err)

	// A fresh exporter recovers its cursor from the sink.
	restarted := indexer.NewExporter(indexer.AppSource{App: ta.SettlementApp}, sink, cfg, log.NewNopLogger())
	n, err = restarted.SyncOnce(ctx)
	require.NoError(t, err)
	require.Positive(t, n)
	require.Len(t, sink.Records(), len(first)+n)
}

type failingSink struct {
	*indexer.MemorySink
	fail bool
}

func (s *failingSink) Write(ctx context.Context, records []types.AuditRecord) error {
	if s.fail {
		return errors.New("sink unavailable")
	}
	return s.MemorySink.Write(ctx, records)
}

func TestExporterRetriesAfterSinkFailure(t *testing.T) {
	ctx := context.Background()
	ta := apptest.New(t, []sdk.AccAddress{hostAddr})
	registerHost(t, ta, hostAddr)

	sink := &failingSink{MemorySink: indexer.NewMemorySink(), fail: true}
	exporter := indexer.NewExporter(indexer.AppSource{App: ta.SettlementApp}, sink, indexer.DefaultConfig(), log.NewNopLogger())

	_, err := exporter.SyncOnce(ctx)
	require.Error(t, err)
	require.Equal(t, uint64(1), exporter.Cursor())
	require.Empty(t, sink.Records())

	sink.fail = false
	n, err := exporter.SyncOnce(ctx)
	require.NoError(t, err)
	require.Len(t, sink.Records(), n)
}

func TestExporterRunStopsOnCancel(t *testing.T) {
	ta := apptest.New(t, []sdk.AccAddress{hostAddr})
	registerHost(t, ta, hostAddr)

	sink := indexer.NewMemorySink()
	cfg := indexer.DefaultConfig()
	cfg.Interval = 10 * time.Millisecond
	exporter := indexer.NewExporter(indexer.AppSource{App: ta.SettlementApp}, sink, cfg, log.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- exporter.Run(ctx) }()

	require.Eventually(t, func() bool { return len(sink.Records()) > 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("exporter did not stop")
	}
}

func TestMemorySinkIgnoresDuplicates(t *testing.T) {
	sink := indexer.NewMemorySink()
	ctx := context.Background()
	require.NoError(t, sink.Write(ctx, []types.AuditRecord{{Seq: 2, Kind: "a"}, {Seq: 1, Kind: "b"}}))
	require.NoError(t, sink.Write(ctx, []types.AuditRecord{{Seq: 2, Kind: "overwritten"}}))

	records := sink.Records()
	require.Len(t, records, 2)
	require.Equal(t, "a", records[1].Kind)
	last, err := sink.LastSeq(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(2), last)
}

func TestConfigValidate(t *testing.T) {
	cfg := indexer.DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Enabled = true
	require.Error(t, cfg.Validate())

	cfg.PostgresDSN = "postgres://localhost/settlement?sslmode=disable"
	require.NoError(t, cfg.Validate())

	cfg.BatchSize = 0
	require.Error(t, cfg.Validate())
}
