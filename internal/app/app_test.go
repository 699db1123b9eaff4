package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camuig/alphastream/internal/config"
	"github.com/camuig/alphastream/internal/executor"
	"github.com/camuig/alphastream/internal/logger"
)

func testConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte("store:\n  driver: " + driver + "\n  path: " +
		filepath.Join(t.TempDir(), "alphastream.data") + "\nprices:\n  provider: yahoo\n  fallback: [moex]\n"))
	require.NoError(t, err)
	return cfg
}

func TestNew(t *testing.T) {
	for _, driver := range []string{"sqlite", "file"} {
		t.Run(driver, func(t *testing.T) {
			a, err := New(context.Background(), testConfig(t, driver), logger.Discard())
			require.NoError(t, err)
			defer a.Close()

			assert.Equal(t, "yahoo>moex+cache", a.Prices.Name())
			assert.NotNil(t, a.WebServer())
			assert.NotNil(t, a.Monitor())
			assert.False(t, a.Notifier.Enabled())
			assert.Equal(t, driver == "sqlite", a.repo != nil)

			p, err := a.Executor.CreateProfile(context.Background(), executor.CreateRequest{Name: "Growth"})
			require.NoError(t, err)
			assert.Equal(t, 10000.0, p.Principal)
			assert.Equal(t, []string{"Growth"}, a.Executor.Names(context.Background()))
		})
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	cfg := testConfig(t, "file")
	cfg.Prices.Provider = "bloomberg"

	_, err := New(context.Background(), cfg, logger.Discard())
	assert.ErrorContains(t, err, "bloomberg")
}
