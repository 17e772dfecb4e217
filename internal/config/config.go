// Package config assembles the service configuration from defaults, an
// optional JSON file, environment variables and command line flags, in
// increasing order of priority.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"

	"github.com/patric-chuzhbe/userapi/internal/logger"
)

type Config struct {
	RunAddr             string        `env:"SERVER_ADDRESS" validate:"hostname_port"`
	GRPCAddr            string        `env:"GRPC_ADDRESS" validate:"omitempty,hostname_port"`
	LogLevel            string        `env:"LOG_LEVEL" validate:"loglevel"`
	DBFileName          string        `env:"FILE_STORAGE_PATH" validate:"dbpath"`
	SQLitePath          string        `env:"SQLITE_PATH" validate:"dbpath"`
	DatabaseDSN         string        `env:"DATABASE_DSN"`
	DBConnectionTimeout time.Duration `env:"DB_CONNECTION_TIMEOUT" validate:"gt=0"`
	MigrationsDir       string        `env:"MIGRATIONS_DIR"`
	ErrorRedirects      bool          `env:"ERROR_REDIRECTS"`
	TokenHeader         string        `env:"TOKEN_HEADER" validate:"required"`
	TrustedSubnet       string        `env:"TRUSTED_SUBNET" validate:"omitempty,cidr"`
	ConfigFile          string        `env:"CONFIG"`
}

var defaultConfig = Config{
	RunAddr:             ":8080",
	LogLevel:            "info",
	DBConnectionTimeout: 10 * time.Second,
	MigrationsDir:       "migrations",
	ErrorRedirects:      true,
	TokenHeader:         "token",
}

// fileConfig mirrors Config for the JSON file. Pointers tell an absent key
// from an explicit zero value.
type fileConfig struct {
	RunAddr             *string `json:"server_address"`
	GRPCAddr            *string `json:"grpc_address"`
	LogLevel            *string `json:"log_level"`
	DBFileName          *string `json:"file_storage_path"`
	SQLitePath          *string `json:"sqlite_path"`
	DatabaseDSN         *string `json:"database_dsn"`
	DBConnectionTimeout *string `json:"db_connection_timeout"`
	MigrationsDir       *string `json:"migrations_dir"`
	ErrorRedirects      *bool   `json:"error_redirects"`
	TokenHeader         *string `json:"token_header"`
	TrustedSubnet       *string `json:"trusted_subnet"`
}

type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
	args                []string
}

// WithDisableFlagsParsing skips command line parsing entirely.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// WithArgs parses args instead of os.Args[1:].
func WithArgs(args []string) InitOption {
	return func(options *initOptions) {
		options.args = args
	}
}

// New builds a validated Config.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		args: os.Args[1:],
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	if err := godotenv.Load(); err != nil {
		logger.Log.Debugw("Unable to load .env file", "error", err)
	}

	values := defaultConfig

	var flags *flag.FlagSet
	if !options.disableFlagsParsing {
		flags = newFlagSet(&values)
		if err := flags.Parse(options.args); err != nil {
			return nil, err
		}
	}

	configFile := os.Getenv("CONFIG")
	if flags != nil {
		if f := flags.Lookup("c"); f != nil && f.Value.String() != "" {
			configFile = f.Value.String()
		}
	}
	if configFile != "" {
		if err := values.applyFile(configFile); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(&values); err != nil {
		return nil, err
	}

	if flags != nil {
		if err := values.applyFlags(flags); err != nil {
			return nil, err
		}
	}
	values.ConfigFile = configFile

	if err := values.validate(); err != nil {
		return nil, err
	}

	return &values, nil
}

// newFlagSet declares the command line flags. Their values are read back
// through Visit, so only flags that were actually passed override anything.
func newFlagSet(values *Config) *flag.FlagSet {
	flags := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flags.String("a", values.RunAddr, "address and port to run server")
	flags.String("g", values.GRPCAddr, "address and port of the gRPC server, disabled when empty")
	flags.String("l", values.LogLevel, "logger level")
	flags.String("f", values.DBFileName, "JSON file name with database")
	flags.String("s", values.SQLitePath, "SQLite database file")
	flags.String("d", values.DatabaseDSN, "A string with the database connection details")
	flags.Duration("t", values.DBConnectionTimeout, "database connection timeout")
	flags.String("m", values.MigrationsDir, "directory with the database migrations")
	flags.Bool("r", values.ErrorRedirects, "redirect client errors to the error route")
	flags.String("n", values.TrustedSubnet, "CIDR allowed to read internal endpoints such as /metrics")
	flags.String("c", "", "JSON configuration file")

	return flags
}

func (c *Config) applyFlags(flags *flag.FlagSet) error {
	var err error
	flags.Visit(func(f *flag.Flag) {
		value := f.Value.String()
		switch f.Name {
		case "a":
			c.RunAddr = value
		case "g":
			c.GRPCAddr = value
		case "l":
			c.LogLevel = value
		case "f":
			c.DBFileName = value
		case "s":
			c.SQLitePath = value
		case "d":
			c.DatabaseDSN = value
		case "t":
			c.DBConnectionTimeout, err = time.ParseDuration(value)
		case "m":
			c.MigrationsDir = value
		case "r":
			c.ErrorRedirects = value == "true"
		case "n":
			c.TrustedSubnet = value
		}
	})

	return err
}

func (c *Config) applyFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %q: %w", path, err)
	}

	var fromFile fileConfig
	if err := json.Unmarshal(content, &fromFile); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}

	setString(&c.RunAddr, fromFile.RunAddr)
	setString(&c.GRPCAddr, fromFile.GRPCAddr)
	setString(&c.LogLevel, fromFile.LogLevel)
	setString(&c.DBFileName, fromFile.DBFileName)
	setString(&c.SQLitePath, fromFile.SQLitePath)
	setString(&c.DatabaseDSN, fromFile.DatabaseDSN)
	setString(&c.MigrationsDir, fromFile.MigrationsDir)
	setString(&c.TokenHeader, fromFile.TokenHeader)
	setString(&c.TrustedSubnet, fromFile.TrustedSubnet)

	if fromFile.ErrorRedirects != nil {
		c.ErrorRedirects = *fromFile.ErrorRedirects
	}

	if fromFile.DBConnectionTimeout != nil {
		c.DBConnectionTimeout, err = time.ParseDuration(*fromFile.DBConnectionTimeout)
		if err != nil {
			return fmt.Errorf("parse db_connection_timeout: %w", err)
		}
	}

	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// validateDBPath accepts an empty path or one whose directory exists.
func validateDBPath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	if path == "" {
		return true
	}

	info, err := os.Stat(filepath.Dir(path))

	return err == nil && info.IsDir()
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	_, err := zapcore.ParseLevel(fieldLevel.Field().String())

	return err == nil
}

func (c *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	err = validate.RegisterValidation("dbpath", validateDBPath)
	if err != nil {
		return err
	}

	return validate.Struct(c)
}
