package di

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mikey/mailbox-warmup/internal/adapters/dnscheck"
	"github.com/mikey/mailbox-warmup/internal/adapters/store"
	"github.com/mikey/mailbox-warmup/internal/config"
	"github.com/mikey/mailbox-warmup/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	flags, err := ParseFlags([]string{"--store", "memory", "--user", "3", "stats"})
	require.NoError(t, err)
	assert.Equal(t, "memory", flags.StoreType)
	assert.Equal(t, int64(3), flags.UserID)
	assert.Equal(t, []string{"stats"}, flags.Args)

	_, err = ParseFlags([]string{"--no-such-flag"})
	assert.Error(t, err)
}

func TestLoadCLIConfigFlagsOverride(t *testing.T) {
	flags, err := ParseFlags([]string{"--store", "memory", "--tone", "formal"})
	require.NoError(t, err)

	cfg, err := loadCLIConfig(flags)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.GetStore().Type)
	assert.Equal(t, "formal", cfg.GetString("reply.tone"))
	assert.Equal(t, "en", cfg.GetString("reply.language"))
}

func TestBuildCLIContainerResolvesEngine(t *testing.T) {
	flags, err := ParseFlags([]string{
		"--store", "sqlite",
		"--sqlite-path", filepath.Join(t.TempDir(), "warmup.db"),
		"--provider", "none",
	})
	require.NoError(t, err)

	container, err := BuildCLIContainer(flags)
	require.NoError(t, err)

	err = container.Invoke(func(runner *core.CycleRunner, st store.Store, checker *dnscheck.Checker, cfg *config.Config) error {
		assert.NotNil(t, runner)
		assert.NotNil(t, checker)
		defer st.Close()

		account, err := st.CreateAccount(context.Background(), &core.Account{UserID: 1, Email: "a@example.com", WarmupMode: core.ModeFlat})
		require.NoError(t, err)
		assert.Equal(t, 7, runner.ComputeDailyQuota(*account))
		return runner.RunCycle(context.Background())
	})
	require.NoError(t, err)
}
