// Package config loads scheduler settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every variable name.
const Prefix = "SCHEDULER"

// Config captures environment driven configuration values for the scheduler.
type Config struct {
	Driver            string        `envconfig:"DRIVER" default:"sqlite" validate:"oneof=sqlite postgres memory"`
	DSN               string        `envconfig:"DSN" default:"scheduler.db" validate:"required_unless=Driver memory"`
	Timezone          string        `envconfig:"TIMEZONE" default:"UTC" validate:"required,timezone"`
	LogLevel          string        `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat         string        `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=text json"`
	SQLiteBusyTimeout time.Duration `envconfig:"SQLITE_BUSY_TIMEOUT" default:"5s" validate:"gte=0"`
	MaxOpenConns      int           `envconfig:"MAX_OPEN_CONNS" default:"0" validate:"gte=0"`
	MigrateOnStart    bool          `envconfig:"MIGRATE_ON_START" default:"true"`

	// Location is resolved from Timezone by Load.
	Location *time.Location `ignored:"true"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := field.Tag.Get("envconfig")
		if name == "" {
			return field.Name
		}
		return Prefix + "_" + name
	})
	return v
}

// Load reads an optional .env file (or the given files, which must exist),
// then parses and validates SCHEDULER_* variables. Variables already set in
// the process environment win over file values.
func Load(envFiles ...string) (Config, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		var parseErr *envconfig.ParseError
		if errors.As(err, &parseErr) {
			return Config{}, fmt.Errorf("invalid environment value: %s", parseErr.KeyName)
		}
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return Config{}, fmt.Errorf("invalid environment value: %s_TIMEZONE", Prefix)
	}
	cfg.Location = loc
	return cfg, nil
}

// Validate reports every invalid variable in one error.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate configuration: %w", err)
	}
	names := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		names = append(names, fe.Field())
	}
	sort.Strings(names)
	return fmt.Errorf("invalid environment values: %s", strings.Join(names, ", "))
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}
