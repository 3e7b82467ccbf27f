package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	// HTTP
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`

	// Storage
	Store        string `yaml:"store"`
	SQLitePath   string `yaml:"sqlite_path"`
	DatabaseURL  string `yaml:"database_url"`
	WorkbookPath string `yaml:"workbook_path"` // empty disables the spreadsheet log

	// Directory and sign-in
	RosterPath string        `yaml:"roster_path"` // empty uses the built-in roster
	JWTSecret  string        `yaml:"jwt_secret"`
	TokenTTL   time.Duration `yaml:"token_ttl"`

	// Payroll
	ReportInterval time.Duration `yaml:"report_interval"` // zero disables the scheduler
	ImportLimit    int           `yaml:"import_limit"`
	SnapWeeks      bool          `yaml:"snap_weeks_to_monday"` // key weeks on the Monday before the given date

	// Export upload
	S3Bucket string `yaml:"s3_bucket"`
	S3Prefix string `yaml:"s3_prefix"`

	// SSM parameter names resolved at startup
	SSMDatabaseURL string `yaml:"ssm_database_url"`
	SSMJWTSecret   string `yaml:"ssm_jwt_secret"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // text or json

	Environment string `yaml:"environment"` // development, production or test
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Addr:           ":8080",
		Store:          DriverSQLite,
		SQLitePath:     "worklog.db",
		TokenTTL:       12 * time.Hour,
		ReportInterval: time.Hour,
		ImportLimit:    4,
		S3Prefix:       "payroll",
		LogLevel:       "info",
		LogFormat:      "text",
		Environment:    "development",
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (if any), then WORKLOG_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path == "" {
		path = os.Getenv("WORKLOG_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"WORKLOG_ADDR":             &c.Addr,
		"WORKLOG_STORE":            &c.Store,
		"WORKLOG_SQLITE_PATH":      &c.SQLitePath,
		"DATABASE_URL":             &c.DatabaseURL,
		"WORKLOG_WORKBOOK_PATH":    &c.WorkbookPath,
		"WORKLOG_ROSTER_PATH":      &c.RosterPath,
		"WORKLOG_JWT_SECRET":       &c.JWTSecret,
		"WORKLOG_S3_BUCKET":        &c.S3Bucket,
		"WORKLOG_S3_PREFIX":        &c.S3Prefix,
		"WORKLOG_SSM_DATABASE_URL": &c.SSMDatabaseURL,
		"WORKLOG_SSM_JWT_SECRET":   &c.SSMJWTSecret,
		"WORKLOG_LOG_LEVEL":        &c.LogLevel,
		"WORKLOG_LOG_FORMAT":       &c.LogFormat,
		"ENVIRONMENT":              &c.Environment,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"WORKLOG_TOKEN_TTL":       &c.TokenTTL,
		"WORKLOG_REPORT_INTERVAL": &c.ReportInterval,
	}
	for key, dst := range durations {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}

	if v := os.Getenv("WORKLOG_IMPORT_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WORKLOG_IMPORT_LIMIT: %w", err)
		}
		c.ImportLimit = n
	}
	if v := os.Getenv("WORKLOG_SNAP_WEEKS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("WORKLOG_SNAP_WEEKS: %w", err)
		}
		c.SnapWeeks = b
	}
	if v := os.Getenv("WORKLOG_CORS_ORIGINS"); v != "" {
		c.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.CORSOrigins = append(c.CORSOrigins, o)
			}
		}
	}
	return nil
}

// Validate checks settings needed to serve.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store {
	case DriverMemory:
	case DriverSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("sqlite_path is required for the sqlite store"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store %q", c.Store))
	}
	if c.JWTSecret == "" && c.Environment != "test" {
		errs = append(errs, errors.New("WORKLOG_JWT_SECRET is required"))
	}
	if c.ImportLimit <= 0 {
		errs = append(errs, fmt.Errorf("import_limit must be positive, got %d", c.ImportLimit))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// ConfigureLogging applies the level and format to the standard logger.
func (c *Config) ConfigureLogging() error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// =============================================================================
// SSM SECRETS
// =============================================================================

// ParameterAPI is the subset of the SSM client used to resolve secrets.
type ParameterAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// NewSSMClient builds an SSM client from the default AWS credential chain.
func NewSSMClient(ctx context.Context) (*ssm.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return ssm.NewFromConfig(cfg), nil
}

// NeedsSSM reports whether any setting is read from SSM.
func (c *Config) NeedsSSM() bool {
	return c.SSMDatabaseURL != "" || c.SSMJWTSecret != ""
}

// ResolveSecrets fills the database URL and JWT secret from SSM parameters
// when their names are configured.
func (c *Config) ResolveSecrets(ctx context.Context, client ParameterAPI) error {
	params := []struct {
		name string
		dst  *string
	}{
		{c.SSMDatabaseURL, &c.DatabaseURL},
		{c.SSMJWTSecret, &c.JWTSecret},
	}
	for _, p := range params {
		if p.name == "" {
			continue
		}
		out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
			Name:           aws.String(p.name),
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			return fmt.Errorf("failed to get parameter %s: %w", p.name, err)
		}
		if out.Parameter == nil || out.Parameter.Value == nil {
			return fmt.Errorf("parameter %s is empty", p.name)
		}
		*p.dst = *out.Parameter.Value
		log.WithField("parameter", p.name).Debug("resolved secret from ssm")
	}
	return nil
}
