package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Settings holds all configuration for splitmerge
type Settings struct {
	Root        string            `mapstructure:"root"`
	DefaultTree string            `mapstructure:"default_tree"`
	Extension   string            `mapstructure:"extension"`
	IdentityKey string            `mapstructure:"identity_key"`
	Ignore      []string          `mapstructure:"ignore"`
	Manifest    ManifestSettings  `mapstructure:"manifest"`
	Migration   MigrationSettings `mapstructure:"migration"`

	// File is the settings file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// ManifestSettings configures split manifest handling
type ManifestSettings struct {
	Prefix        string `mapstructure:"prefix"`
	CreateMissing bool   `mapstructure:"create_missing"`
}

// MigrationSettings configures the identity correction snippet
type MigrationSettings struct {
	Module       string `mapstructure:"module"`
	UpdateNumber int    `mapstructure:"update_number"`
	// Template is an optional Handlebars file replacing the built-in template.
	Template string `mapstructure:"template"`
}

var defaultSettings = Settings{
	Root:        "config",
	DefaultTree: "default",
	Extension:   ".yml",
	IdentityKey: "uuid",
	Ignore:      []string{},
	Manifest: ManifestSettings{
		Prefix:        "config_split.config_split",
		CreateMissing: false,
	},
	Migration: MigrationSettings{
		Module:       "config_split_merge",
		UpdateNumber: 9001,
	},
}

// Defaults returns a copy of the built-in settings.
func Defaults() *Settings {
	s := defaultSettings
	s.Ignore = append([]string{}, defaultSettings.Ignore...)
	return &s
}

// Options controls where Load looks for settings.
type Options struct {
	// File is an explicit settings file. It must exist when set.
	File string
	// SearchPaths are searched for splitmerge.yaml when File is empty.
	// Defaults to the working directory and $HOME.
	SearchPaths []string
	// EnvFile is loaded into the process environment before reading
	// SPLITMERGE_* variables. A missing file is ignored. Defaults to ".env".
	EnvFile string
}

// Load reads settings from defaults, an optional settings file and the
// SPLITMERGE_* environment, in increasing precedence.
func Load(opts Options) (*Settings, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	v := viper.New()

	v.SetDefault("root", defaultSettings.Root)
	v.SetDefault("default_tree", defaultSettings.DefaultTree)
	v.SetDefault("extension", defaultSettings.Extension)
	v.SetDefault("identity_key", defaultSettings.IdentityKey)
	v.SetDefault("ignore", defaultSettings.Ignore)
	v.SetDefault("manifest.prefix", defaultSettings.Manifest.Prefix)
	v.SetDefault("manifest.create_missing", defaultSettings.Manifest.CreateMissing)
	v.SetDefault("migration.module", defaultSettings.Migration.Module)
	v.SetDefault("migration.update_number", defaultSettings.Migration.UpdateNumber)
	v.SetDefault("migration.template", defaultSettings.Migration.Template)

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName("splitmerge")
		v.SetConfigType("yaml")
		paths := opts.SearchPaths
		if len(paths) == 0 {
			paths = []string{".", "$HOME"}
		}
		for _, p := range paths {
			v.AddConfigPath(p)
		}
	}

	v.SetEnvPrefix("SPLITMERGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.File != "" || !errors.As(err, &notFound) {
			return nil, &SettingsError{File: opts.File, Err: err}
		}
	}

	if used := v.ConfigFileUsed(); used != "" {
		data, err := os.ReadFile(used) // #nosec G304 -- path chosen by the operator
		if err != nil {
			return nil, &SettingsError{File: used, Err: err}
		}
		if err := ValidateSettings(data); err != nil {
			return nil, &SettingsError{File: used, Err: err}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, &SettingsError{File: v.ConfigFileUsed(), Err: fmt.Errorf("error unmarshaling settings: %w", err)}
	}
	s.File = v.ConfigFileUsed()

	if err := s.Validate(); err != nil {
		return nil, &SettingsError{File: s.File, Err: err}
	}
	return &s, nil
}

// Validate checks values that the schema cannot express, including values
// that came from the environment.
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.Root) == "" {
		return errors.New("root cannot be empty")
	}
	if strings.TrimSpace(s.DefaultTree) == "" {
		return errors.New("default_tree cannot be empty")
	}
	if strings.TrimSpace(s.IdentityKey) == "" {
		return errors.New("identity_key cannot be empty")
	}
	if !strings.HasPrefix(s.Extension, ".") {
		s.Extension = "." + s.Extension
	}
	switch s.Extension {
	case ".yml", ".yaml", ".toml", ".json":
	default:
		return fmt.Errorf("unsupported extension %q", s.Extension)
	}
	if s.Migration.UpdateNumber < 0 {
		return fmt.Errorf("migration.update_number must not be negative, got %d", s.Migration.UpdateNumber)
	}
	return nil
}

// ErrInvalidSettings matches every SettingsError.
var ErrInvalidSettings = errors.New("invalid settings")

// SettingsError reports settings that could not be read or are invalid.
type SettingsError struct {
	File string
	Err  error
}

func (e *SettingsError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("invalid settings: %v", e.Err)
	}
	return fmt.Sprintf("invalid settings in %s: %v", e.File, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *SettingsError) Unwrap() error { return e.Err }

// Is implements errors.Is support
func (e *SettingsError) Is(target error) bool { return target == ErrInvalidSettings }
