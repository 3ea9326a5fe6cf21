package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fadedpez/wagerescrow/internal/config"
	"github.com/fadedpez/wagerescrow/pkg/entities"
	"github.com/fadedpez/wagerescrow/pkg/repositories/history"
	"github.com/fadedpez/wagerescrow/pkg/repositories/ledger"
	"github.com/fadedpez/wagerescrow/pkg/services/wager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(storage string, dir string) *config.Config {
	return &config.Config{
		StorageType:            storage,
		SQLitePath:             filepath.Join(dir, "wagerescrow.db"),
		Custody:                "wrapped",
		RentPerByteYear:        3480,
		RentExemptionThreshold: 2,
		StartingBalance:        10_000_000,
		AuthorityMode:          "single_admin",
		AuthorityAdmin:         "admin",
		HistoryRetention:       time.Hour,
	}
}

func TestNewWiresStorage(t *testing.T) {
	tests := []struct {
		storage   string
		wantStore any
		wantHist  any
	}{
		{"memory", &ledger.MemoryStore{}, &history.MemoryRepository{}},
		{"sqlite", &ledger.SQLiteStore{}, &history.SQLiteRepository{}},
	}

	for _, tt := range tests {
		t.Run(tt.storage, func(t *testing.T) {
			ctx := context.Background()
			a, err := New(ctx, testConfig(tt.storage, t.TempDir()))
			require.NoError(t, err)
			defer func() { assert.NoError(t, a.Close()) }()

			assert.IsType(t, tt.wantStore, a.Store)
			assert.IsType(t, tt.wantHist, a.History)

			_, _, err = a.Wallets.GetOrCreateWallet(ctx, "alice")
			require.NoError(t, err)
			rec, err := a.Games.CreateGame(ctx, wager.CreateRequest{
				Creator:     "alice",
				GameType:    entities.GameTypeLudo,
				Code:        "g1",
				Wager:       100,
				PlayerCount: 2,
			})
			require.NoError(t, err)

			events, err := a.History.GameEvents(ctx, rec.Address, 0)
			require.NoError(t, err)
			assert.Len(t, events, 1)
		})
	}
}

func TestNewRejectsUnknownCustody(t *testing.T) {
	cfg := testConfig("memory", t.TempDir())
	cfg.Custody = "vault"

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestRunNeedsASurface(t *testing.T) {
	a, err := New(context.Background(), testConfig("memory", t.TempDir()))
	require.NoError(t, err)
	defer a.Close()

	assert.Error(t, a.Run(context.Background()))
}

func TestRunServesHTTPUntilCancelled(t *testing.T) {
	cfg := testConfig("memory", t.TempDir())
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.JWTSecret = "secret"
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
