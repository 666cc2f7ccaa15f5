// Package config loads protoforge.yml and turns it into compiler
// options. Configuration is read once before compilation begins; the
// resulting options value is immutable for the run.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/protoforge/protoforge/internal/compiler/options"
)

// Config represents the protoforge configuration file.
type Config struct {
	Generate GenerateConfig `mapstructure:"generate"`
}

// GenerateConfig configures the generate command.
type GenerateConfig struct {
	// Output is the directory generated packages are written under.
	Output string `mapstructure:"output"`
	// ImportBase is the Go import path prefix of the output directory.
	ImportBase string `mapstructure:"import_base"`
	// BytesAsString selects the immutable string representation for
	// the bytes scalar instead of []byte.
	BytesAsString bool `mapstructure:"bytes_as_string"`
	// StripComments drops schema comments from generated declarations.
	StripComments bool `mapstructure:"strip_comments"`

	ExternPaths     []options.ExternPath `mapstructure:"extern_paths"`
	BoxedFields     []string             `mapstructure:"boxed_fields"`
	TypeAttributes  []options.Attribute  `mapstructure:"type_attributes"`
	FieldAttributes []options.Attribute  `mapstructure:"field_attributes"`
}

// Load loads the configuration from protoforge.yml or protoforge.yaml
// in the working directory, falling back to defaults when no file
// exists.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("generate.output", "gen")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("protoforge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}

// Options converts the file configuration into compiler options.
func (c *Config) Options() *options.Options {
	opts := &options.Options{
		ExternPaths:     c.Generate.ExternPaths,
		BoxedFields:     c.Generate.BoxedFields,
		TypeAttributes:  c.Generate.TypeAttributes,
		FieldAttributes: c.Generate.FieldAttributes,
		GoImportBase:    c.Generate.ImportBase,
		BytesAsString:   c.Generate.BytesAsString,
	}
	if c.Generate.StripComments {
		opts.Comments = options.CommentsStrip
	}
	return opts
}
