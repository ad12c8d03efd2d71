package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/oneway/internal/credential"
	"github.com/felixgeelhaar/oneway/internal/errors"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "http://localhost:3001/graphql", cfg.Endpoints.GraphQL)
	assert.Equal(t, "http://localhost:3001", cfg.Endpoints.API)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, credential.BackendFile, cfg.Store.Backend)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.NoError(t, cfg.Validate())
}

func TestPath(t *testing.T) {
	p, err := Path("/tmp/explicit.yaml", envMap(map[string]string{EnvConfig: "/tmp/env.yaml"}))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/explicit.yaml", p)

	p, err = Path("", envMap(map[string]string{EnvConfig: "/tmp/env.yaml"}))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env.yaml", p)

	p, err = Path("", envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(".oneway", "config.yaml"), filepath.Join(filepath.Base(filepath.Dir(p)), filepath.Base(p)))
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
endpoints:
  graphql: https://team.example.com/graphql
http:
  timeout: 0s
store:
  backend: redis
  redis:
    addr: localhost:6379
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://team.example.com/graphql", cfg.Endpoints.GraphQL)
	assert.Equal(t, "http://localhost:3001", cfg.Endpoints.API)
	assert.Zero(t, cfg.HTTP.Timeout)
	assert.Equal(t, credential.BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "localhost:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, "oneway:", cfg.Store.Redis.Prefix)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("endpoints: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Equal(t, errors.ErrCodeConfigRead, errors.CodeOf(err))
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Endpoints.API = "https://api.example.com"
	cfg.HTTP.Timeout = 5 * time.Second
	cfg.Store.Passphrase = "secret"
	require.NoError(t, Save(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret", "passphrase is never written")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", loaded.Endpoints.API)
	assert.Equal(t, 5*time.Second, loaded.HTTP.Timeout)
	assert.Empty(t, loaded.Store.Passphrase)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	cfg.ApplyEnv(envMap(map[string]string{
		EnvGraphQLURL: "http://gql.internal/graphql",
		EnvAPIURL:     "http://api.internal",
		EnvStore:      credential.BackendEncryptedFile,
		EnvRedisAddr:  "redis:6379",
		EnvPassphrase: "pw",
	}))

	assert.Equal(t, "http://gql.internal/graphql", cfg.Endpoints.GraphQL)
	assert.Equal(t, "http://api.internal", cfg.Endpoints.API)
	assert.Equal(t, credential.BackendEncryptedFile, cfg.Store.Backend)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, "pw", cfg.Store.Passphrase)

	cfg.ApplyEnv(envMap(map[string]string{EnvOTLP: "http://collector:4318/v1/traces"}))
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "http://collector:4318/v1/traces", cfg.Telemetry.Endpoint)

	before := *cfg
	cfg.ApplyEnv(nil)
	assert.Equal(t, before, *cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults"},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Store.Backend = "keychain" },
			wantErr: "store.backend",
		},
		{
			name:    "relative graphql url",
			mutate:  func(c *Config) { c.Endpoints.GraphQL = "/graphql" },
			wantErr: "endpoints.graphql",
		},
		{
			name:    "bad api scheme",
			mutate:  func(c *Config) { c.Endpoints.API = "ftp://example.com" },
			wantErr: "endpoints.api",
		},
		{
			name:    "redis without addr",
			mutate:  func(c *Config) { c.Store.Backend = credential.BackendRedis },
			wantErr: "store.redis.addr",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.HTTP.Timeout = -time.Second },
			wantErr: "http.timeout",
		},
		{
			name:    "sample rate above one",
			mutate:  func(c *Config) { c.Telemetry.SampleRate = 1.5 },
			wantErr: "telemetry.sample_rate",
		},
		{
			name:    "sample rate NaN",
			mutate:  func(c *Config) { c.Telemetry.SampleRate = math.NaN() },
			wantErr: "telemetry.sample_rate",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "logging.level",
		},
		{
			name:   "log level is case insensitive",
			mutate: func(c *Config) { c.Logging.Level = "DEBUG" },
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Logging.Format = "logfmt" },
			wantErr: "logging.format",
		},
		{
			name:    "telemetry endpoint",
			mutate:  func(c *Config) { c.Telemetry.Endpoint = "collector:4318" },
			wantErr: "telemetry.endpoint",
		},
		{
			name:    "output format",
			mutate:  func(c *Config) { c.Output.Format = "xml" },
			wantErr: "output.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeConfigInvalid, errors.CodeOf(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStoreOptions(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg := Default()
	cfg.Store.Backend = credential.BackendRedis
	cfg.Store.Path = "~/tokens/cred.json"
	cfg.Store.Passphrase = "pw"
	cfg.Store.Redis = RedisConfig{Addr: "localhost:6379", DB: 2, Prefix: "team:"}

	opts := cfg.StoreOptions()
	assert.Equal(t, credential.BackendRedis, opts.Backend)
	assert.Equal(t, filepath.Join(home, "tokens", "cred.json"), opts.Path)
	assert.Equal(t, "pw", opts.Passphrase)
	assert.Equal(t, credential.RedisOptions{Addr: "localhost:6379", DB: 2, Prefix: "team:"}, opts.Redis)
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	for _, key := range Keys {
		_, err := cfg.Get(key)
		assert.NoError(t, err, key)
	}

	tests := []struct {
		key   string
		value string
		want  string
	}{
		{"endpoints.graphql", "https://x.example.com/graphql", "https://x.example.com/graphql"},
		{"http.timeout", "45s", "45s"},
		{"store.redis.db", "3", "3"},
		{"output.no_color", "true", "true"},
		{"logging.level", "debug", "debug"},
		{"telemetry.enabled", "yes", ""},
		{"telemetry.sample_rate", "0.25", "0.25"},
		{"metrics.textfile", "/var/lib/node_exporter/oneway.prom", "/var/lib/node_exporter/oneway.prom"},
	}
	for _, tt := range tests {
		if tt.want == "" {
			assert.Error(t, cfg.Set(tt.key, tt.value), tt.key)
			continue
		}
		require.NoError(t, cfg.Set(tt.key, tt.value), tt.key)
		got, err := cfg.Get(tt.key)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	assert.Error(t, cfg.Set("http.timeout", "soon"))
	assert.Error(t, cfg.Set("store.redis.db", "two"))
	assert.Error(t, cfg.Set("output.no_color", "maybe"))
	assert.Error(t, cfg.Set("telemetry.sample_rate", "half"))
	assert.Error(t, cfg.Set("unknown.key", "x"))
	_, err := cfg.Get("unknown.key")
	assert.Error(t, err)
}

func TestTelemetryOptions(t *testing.T) {
	cfg := Default()
	opts := cfg.TelemetryOptions("1.2.0")
	assert.False(t, opts.Enabled)
	assert.Equal(t, "oneway", opts.ServiceName)
	assert.Equal(t, "1.2.0", opts.ServiceVersion)
	assert.Equal(t, 1.0, opts.SampleRate)

	cfg.Telemetry = TelemetryConfig{Enabled: true, Endpoint: "http://collector:4318/v1/traces", SampleRate: 0.5}
	opts = cfg.TelemetryOptions("1.2.0")
	assert.True(t, opts.Enabled)
	assert.Equal(t, "http://collector:4318/v1/traces", opts.Endpoint)
	assert.Equal(t, 0.5, opts.SampleRate)

	assert.Empty(t, cfg.MetricsTextfile())
}
