package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/worklog/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("WORKLOG_CONFIG", "")
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, config.DriverSQLite, cfg.Store)
	assert.Equal(t, 12*time.Hour, cfg.TokenTTL)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worklog.yaml")
	data := "addr: ':9000'\nstore: postgres\ndatabase_url: postgres://file\nreport_interval: 30m\nlog_format: json\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("WORKLOG_IMPORT_LIMIT", "8")
	t.Setenv("WORKLOG_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr, "file overrides defaults")
	assert.Equal(t, config.DriverPostgres, cfg.Store)
	assert.Equal(t, "postgres://env", cfg.DatabaseURL, "env overrides file")
	assert.Equal(t, 30*time.Minute, cfg.ReportInterval)
	assert.Equal(t, 8, cfg.ImportLimit)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("WORKLOG_TOKEN_TTL", "soon")
	_, err := config.Load("")
	assert.ErrorContains(t, err, "WORKLOG_TOKEN_TTL")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *config.Config)
		want   string
	}{
		{"ok", func(c *config.Config) {}, ""},
		{"unknown store", func(c *config.Config) { c.Store = "mongo" }, "unknown store"},
		{"postgres without url", func(c *config.Config) { c.Store = config.DriverPostgres }, "DATABASE_URL"},
		{"no secret", func(c *config.Config) { c.JWTSecret = "" }, "WORKLOG_JWT_SECRET"},
		{"no secret in test", func(c *config.Config) { c.JWTSecret = ""; c.Environment = "test" }, ""},
		{"bad level", func(c *config.Config) { c.LogLevel = "loud" }, "loud"},
		{"bad limit", func(c *config.Config) { c.ImportLimit = 0 }, "import_limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Defaults()
			cfg.JWTSecret = "s"
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

type fakeSSM struct {
	values map[string]string
}

func (f fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	v, ok := f.values[aws.ToString(in.Name)]
	if !ok {
		return nil, errors.New("ParameterNotFound")
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: aws.String(v)}}, nil
}

func TestResolveSecrets(t *testing.T) {
	cfg := config.Defaults()
	cfg.SSMDatabaseURL = "/worklog/db"
	cfg.SSMJWTSecret = "/worklog/jwt"
	require.True(t, cfg.NeedsSSM())

	client := fakeSSM{values: map[string]string{"/worklog/db": "postgres://ssm", "/worklog/jwt": "shh"}}
	require.NoError(t, cfg.ResolveSecrets(context.Background(), client))
	assert.Equal(t, "postgres://ssm", cfg.DatabaseURL)
	assert.Equal(t, "shh", cfg.JWTSecret)

	cfg.SSMJWTSecret = "/missing"
	assert.ErrorContains(t, cfg.ResolveSecrets(context.Background(), client), "/missing")
}
