package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/taskq/pkg/config"
)

type TestConfigDefault struct {
	Backend  string        `env:"TEST_BACKEND_DEFAULT" envDefault:"memory"`
	Attempts int           `env:"TEST_ATTEMPTS_DEFAULT" envDefault:"5"`
	Delay    time.Duration `env:"TEST_DELAY_DEFAULT" envDefault:"100ms"`
}

type TestConfigSuccess struct {
	Backend  string        `env:"TEST_BACKEND_SUCCESS" envDefault:"memory"`
	Attempts int           `env:"TEST_ATTEMPTS_SUCCESS" envDefault:"5"`
	Delay    time.Duration `env:"TEST_DELAY_SUCCESS" envDefault:"100ms"`
}

type TestConfigSingleton struct {
	Value string `env:"TEST_VALUE_SINGLETON" envDefault:"default_value"`
}

type RequiredConfig struct {
	Required string `env:"TEST_REQUIRED_VALUE,required"`
}

type EnvFileConfig struct {
	Backend  string `env:"TASKQ_TEST_BACKEND"`
	Attempts int    `env:"TASKQ_TEST_ATTEMPTS"`
	Quoted   string `env:"TASKQ_TEST_QUOTED"`
	Override string `env:"TASKQ_TEST_ONLY_OVERRIDE"`
}

func TestLoad_Success(t *testing.T) {
	t.Setenv("TEST_BACKEND_SUCCESS", "redis")
	t.Setenv("TEST_ATTEMPTS_SUCCESS", "9")
	t.Setenv("TEST_DELAY_SUCCESS", "2s")

	var cfg TestConfigSuccess
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "redis", cfg.Backend)
	assert.Equal(t, 9, cfg.Attempts)
	assert.Equal(t, 2*time.Second, cfg.Delay)
}

func TestLoad_DefaultValues(t *testing.T) {
	os.Unsetenv("TEST_BACKEND_DEFAULT")
	os.Unsetenv("TEST_ATTEMPTS_DEFAULT")
	os.Unsetenv("TEST_DELAY_DEFAULT")

	var cfg TestConfigDefault
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "memory", cfg.Backend)
	assert.Equal(t, 5, cfg.Attempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Delay)
}

func TestLoad_Singleton(t *testing.T) {
	t.Setenv("TEST_VALUE_SINGLETON", "first")

	var first TestConfigSingleton
	require.NoError(t, config.Load(&first))

	t.Setenv("TEST_VALUE_SINGLETON", "second")

	var second TestConfigSingleton
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first", second.Value, "cached value must be served")

	var reloaded TestConfigSingleton
	require.NoError(t, config.ForceReloadConfig(&reloaded))
	assert.Equal(t, "second", reloaded.Value)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("nil pointer", func(t *testing.T) {
		var cfg *TestConfigDefault
		assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
	})

	t.Run("missing required value can be fixed", func(t *testing.T) {
		os.Unsetenv("TEST_REQUIRED_VALUE")

		var cfg RequiredConfig
		assert.ErrorIs(t, config.Load(&cfg), config.ErrParsingConfig)
		assert.Panics(t, func() { config.MustLoad(&cfg) })

		t.Setenv("TEST_REQUIRED_VALUE", "present")
		require.NoError(t, config.Load(&cfg))
		assert.Equal(t, "present", cfg.Required)
	})
}

func TestLoadEnv(t *testing.T) {
	for _, key := range []string{"TASKQ_TEST_BACKEND", "TASKQ_TEST_ATTEMPTS", "TASKQ_TEST_QUOTED", "TASKQ_TEST_ONLY_OVERRIDE"} {
		os.Unsetenv(key)
		t.Cleanup(func() { os.Unsetenv(key) })
	}
	config.ResetCache()

	require.NoError(t, config.LoadEnv("testdata/.env.test", "testdata/.env.override"))

	var cfg EnvFileConfig
	require.NoError(t, config.Load(&cfg))

	// godotenv never overwrites, so the first file wins
	assert.Equal(t, "redis", cfg.Backend)
	assert.Equal(t, 7, cfg.Attempts)
	assert.Equal(t, "quoted value", cfg.Quoted)
	assert.Equal(t, "yes", cfg.Override)
}

func TestLoadEnv_NonExistentPath(t *testing.T) {
	err := config.LoadEnv("testdata/missing.env")
	assert.ErrorIs(t, err, config.ErrLoadingEnvFile)

	assert.Panics(t, func() { config.MustLoadEnv("testdata/missing.env") })
}
