package factory

import (
	"path/filepath"
	"testing"

	"github.com/mikey/mailbox-warmup/internal/adapters/alert"
	"github.com/mikey/mailbox-warmup/internal/adapters/cache"
	"github.com/mikey/mailbox-warmup/internal/adapters/lock"
	"github.com/mikey/mailbox-warmup/internal/adapters/openai"
	"github.com/mikey/mailbox-warmup/internal/adapters/spamcheck"
	"github.com/mikey/mailbox-warmup/internal/adapters/store"
	"github.com/mikey/mailbox-warmup/internal/config"
	"github.com/mikey/mailbox-warmup/internal/core"
	"github.com/mikey/mailbox-warmup/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newConfig(settings map[string]interface{}) *config.Config {
	v := config.NewEmptyViper()
	for k, val := range settings {
		v.Set(k, val)
	}
	return config.NewFromViper(v)
}

func TestCreateStore(t *testing.T) {
	logger := zap.NewNop()

	st, err := NewStoreFactory(newConfig(map[string]interface{}{"store.type": "memory"}), logger).CreateStore()
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryStore{}, st)

	path := filepath.Join(t.TempDir(), "nested", "warmup.db")
	st, err = NewStoreFactory(newConfig(map[string]interface{}{
		"store.type":        "sqlite",
		"store.sqlite_path": path,
	}), logger).CreateStore()
	require.NoError(t, err)
	defer st.Close()
	assert.IsType(t, &store.SQLStore{}, st)
	assert.FileExists(t, path)

	_, err = NewStoreFactory(newConfig(map[string]interface{}{"store.type": "cassandra"}), logger).CreateStore()
	assert.ErrorContains(t, err, "unsupported store type")

	inMemory := NewStoreFactory(newConfig(map[string]interface{}{
		"store.type":        "sqlite",
		"store.sqlite_path": ":memory:",
	}), logger)
	_, err = inMemory.CreateStore()
	assert.ErrorIs(t, err, store.ErrInMemorySQLite)
	_, err = inMemory.Migrate()
	assert.ErrorIs(t, err, store.ErrInMemorySQLite)
}

func TestCreateReplyGenerator(t *testing.T) {
	logger := zap.NewNop()
	tp := utils.NewTextProcessor(logger)

	gen, err := NewReplyFactory(newConfig(map[string]interface{}{"reply.provider": "openai"}), logger, tp).CreateReplyGenerator()
	require.NoError(t, err)
	assert.Nil(t, gen)

	gen, err = NewReplyFactory(newConfig(map[string]interface{}{
		"reply.provider": "openai",
		"openai.api_key": "sk-test",
	}), logger, tp).CreateReplyGenerator()
	require.NoError(t, err)
	assert.IsType(t, &openai.ReplyClient{}, gen)

	gen, err = NewReplyFactory(newConfig(map[string]interface{}{"reply.provider": "gemini"}), logger, tp).CreateReplyGenerator()
	require.NoError(t, err)
	assert.Nil(t, gen)

	gen, err = NewReplyFactory(newConfig(map[string]interface{}{"reply.provider": "none"}), logger, tp).CreateReplyGenerator()
	require.NoError(t, err)
	assert.Nil(t, gen)

	_, err = NewReplyFactory(newConfig(map[string]interface{}{"reply.provider": "parrot"}), logger, tp).CreateReplyGenerator()
	assert.ErrorContains(t, err, "unsupported reply provider")
}

func TestCreateAlertSink(t *testing.T) {
	logger := zap.NewNop()

	sink, err := NewAlertFactory(newConfig(map[string]interface{}{"alert.type": "log"}), logger).CreateAlertSink()
	require.NoError(t, err)
	assert.IsType(t, &alert.LogAlerter{}, sink)

	sink, err = NewAlertFactory(newConfig(map[string]interface{}{
		"alert.type":    "smtp",
		"alert.smtp.to": []string{"oncall@example.com"},
	}), logger).CreateAlertSink()
	require.NoError(t, err)
	assert.IsType(t, &alert.SMTPAlerter{}, sink)

	_, err = NewAlertFactory(newConfig(map[string]interface{}{"alert.type": "smtp"}), logger).CreateAlertSink()
	assert.Error(t, err)

	sink, err = NewAlertFactory(newConfig(map[string]interface{}{"alert.type": "none"}), logger).CreateAlertSink()
	require.NoError(t, err)
	assert.Nil(t, sink)
}

func TestCreateCycleLock(t *testing.T) {
	logger := zap.NewNop()

	l, err := NewLockFactory(newConfig(map[string]interface{}{"lock.type": "local"}), logger).CreateCycleLock()
	require.NoError(t, err)
	assert.IsType(t, &lock.LocalLock{}, l)

	l, err = NewLockFactory(newConfig(map[string]interface{}{"lock.type": "redis"}), logger).CreateCycleLock()
	require.NoError(t, err)
	assert.IsType(t, &lock.RedisLock{}, l)

	_, err = NewLockFactory(newConfig(map[string]interface{}{"lock.type": "zookeeper"}), logger).CreateCycleLock()
	assert.Error(t, err)
}

func TestCreateSpamScorer(t *testing.T) {
	logger := zap.NewNop()

	scorer, err := NewScorerFactory(newConfig(nil), logger).CreateSpamScorer()
	require.NoError(t, err)
	assert.Nil(t, scorer)

	scorer, err = NewScorerFactory(newConfig(map[string]interface{}{
		"spamcheck.api_url": "https://spam.example.com/score",
	}), logger).CreateSpamScorer()
	require.NoError(t, err)
	require.IsType(t, &cache.ScoreCache{}, scorer)
	scorer.(*cache.ScoreCache).Close()

	scorer, err = NewScorerFactory(newConfig(map[string]interface{}{
		"spamcheck.api_url":   "https://spam.example.com/score",
		"spamcheck.cache_ttl": "0s",
	}), logger).CreateSpamScorer()
	require.NoError(t, err)
	assert.IsType(t, &spamcheck.HTTPScorer{}, scorer)
}

func TestCreateTriggers(t *testing.T) {
	logger := zap.NewNop()
	st := store.NewMemoryStore(logger)
	state := core.NewDailyState(core.DefaultQuotaPolicy(), nil, nil)
	runner := core.NewCycleRunner(st, state, nil, nil, nil, nil, nil, logger, "")

	triggers, err := NewTriggerFactory(newConfig(map[string]interface{}{"metrics.enabled": true}), logger).CreateTriggers(runner, st)
	require.NoError(t, err)
	require.Len(t, triggers, 3)
	assert.Equal(t, "interval", triggers[0].Name())
	assert.Equal(t, "daily-reset", triggers[1].Name())
	assert.Equal(t, "ops-server", triggers[2].Name())

	triggers, err = NewTriggerFactory(newConfig(map[string]interface{}{"metrics.enabled": false}), logger).CreateTriggers(runner, st)
	require.NoError(t, err)
	assert.Len(t, triggers, 2)
}
