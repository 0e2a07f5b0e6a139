package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/titanhq/notifier/pkg/config"
)

type sample struct {
	Name    string        `env:"NAME,required"`
	Retries int           `env:"RETRIES" envDefault:"3"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
	Enabled bool          `env:"ENABLED" envDefault:"true"`
}

func TestLoad(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		vars    map[string]string
		want    sample
		wantErr error
	}{
		{
			name: "defaults",
			vars: map[string]string{"NAME": "titan"},
			want: sample{Name: "titan", Retries: 3, Timeout: 10 * time.Second, Enabled: true},
		},
		{
			name: "overrides",
			vars: map[string]string{"NAME": "titan", "RETRIES": "5", "TIMEOUT": "2s", "ENABLED": "false"},
			want: sample{Name: "titan", Retries: 5, Timeout: 2 * time.Second},
		},
		{
			name:    "missing required",
			vars:    map[string]string{},
			wantErr: config.ErrParsingConfig,
		},
		{
			name:    "malformed value",
			vars:    map[string]string{"NAME": "titan", "RETRIES": "many"},
			wantErr: config.ErrParsingConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var got sample
			err := config.Load(&got, config.WithEnvironment(tt.vars))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_Prefix(t *testing.T) {
	t.Parallel()

	var got sample
	err := config.Load(&got,
		config.WithEnvironment(map[string]string{"APP_NAME": "prefixed", "NAME": "ignored"}),
		config.WithPrefix("APP_"),
	)
	require.NoError(t, err)
	assert.Equal(t, "prefixed", got.Name)
}

func TestLoad_NilPointer(t *testing.T) {
	t.Parallel()

	var cfg *sample
	assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
	assert.Panics(t, func() { config.MustLoad(cfg) })
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("CONFIG_TEST_FROM_FILE=file\nCONFIG_TEST_PRESET=file\n"), 0o600))

	t.Setenv("CONFIG_TEST_PRESET", "process")
	t.Cleanup(func() { os.Unsetenv("CONFIG_TEST_FROM_FILE") })

	require.NoError(t, config.LoadEnv(path))
	assert.Equal(t, "file", os.Getenv("CONFIG_TEST_FROM_FILE"))
	assert.Equal(t, "process", os.Getenv("CONFIG_TEST_PRESET"))

	assert.ErrorIs(t, config.LoadEnv(filepath.Join(dir, "missing.env")), config.ErrLoadingEnvFile)
}
