// Package config reads oxfs tools configuration from a YAML/JSON file,
// OXFS_* environment variables and command line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/nspcc-dev/oxfs/cmd/internal/configvalidator"
	"github.com/nspcc-dev/oxfs/pkg/romfs/compression"
	"github.com/nspcc-dev/oxfs/pkg/romfs/ptrarith"
	"github.com/nspcc-dev/oxfs/pkg/util/logger"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is a prefix of ENV variables related to oxfs tools.
	EnvPrefix = "oxfs"

	// EnvSeparator is a section separator in ENV variables.
	EnvSeparator = "_"

	separator = "."
)

// Config is the tools configuration.
type Config struct {
	Image   Image   `mapstructure:"image"`
	Logger  Logger  `mapstructure:"logger"`
	Pack    Pack    `mapstructure:"pack"`
	Metrics Metrics `mapstructure:"metrics"`
}

// Image describes the image file and its format.
type Image struct {
	Path     string `mapstructure:"path"`
	Capacity Size   `mapstructure:"capacity"`
	Width    uint64 `mapstructure:"width"`
	Compress bool   `mapstructure:"compress"`
	Level    string `mapstructure:"level"`
}

// Logger is the "logger" section.
type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// Pack is the "pack" section.
type Pack struct {
	Workers   int  `mapstructure:"workers"`
	PathCache int  `mapstructure:"path_cache"`
	Verify    bool `mapstructure:"verify"`
	Shrink    bool `mapstructure:"shrink"`
}

// Metrics is the "metrics" section.
type Metrics struct {
	Textfile string `mapstructure:"textfile"`
}

// Default values.
const (
	CapacityDefault  = 32 << 20
	WidthDefault     = 32
	LevelDefault     = "default"
	LogLevelDefault  = "info"
	EncodingDefault  = logger.EncodingConsole
	WorkersDefault   = 4
	PathCacheDefault = 128
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("image.path", "")
	v.SetDefault("image.capacity", 0)
	v.SetDefault("image.width", WidthDefault)
	v.SetDefault("image.compress", false)
	v.SetDefault("image.level", LevelDefault)

	v.SetDefault("logger.level", LogLevelDefault)
	v.SetDefault("logger.encoding", EncodingDefault)

	v.SetDefault("pack.workers", WorkersDefault)
	v.SetDefault("pack.path_cache", PathCacheDefault)
	v.SetDefault("pack.verify", true)
	v.SetDefault("pack.shrink", false)

	v.SetDefault("metrics.textfile", "")
}

// Option allows to set optional parameters of the Config.
type Option func(*opts)

type opts struct {
	path  string
	flags map[string]*pflag.Flag
}

// WithConfigFile returns an option to read configuration from the file.
func WithConfigFile(path string) Option {
	return func(o *opts) {
		o.path = path
	}
}

// WithFlag returns an option to override the key with the command line flag
// if it is set. Nil flag is ignored.
func WithFlag(key string, f *pflag.Flag) Option {
	return func(o *opts) {
		if f != nil {
			o.flags[key] = f
		}
	}
}

// New reads the configuration. Sources in order of priority: flags,
// environment, file, defaults.
func New(options ...Option) (*Config, error) {
	o := opts{flags: make(map[string]*pflag.Flag)}
	for i := range options {
		options[i](&o)
	}

	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(separator, EnvSeparator))

	setDefaults(v)

	for key, f := range o.flags {
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("bind flag %q: %w", f.Name, err)
		}
	}

	if o.path != "" {
		path, err := homedir.Expand(o.path)
		if err != nil {
			return nil, fmt.Errorf("config path: %w", err)
		}

		v.SetConfigFile(path)

		if err = v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var c Config

	err := v.Unmarshal(&c, viper.DecodeHook(SizeHook()))
	if err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err = configvalidator.CheckForUnknownFields(v.AllSettings(), c); err != nil {
		return nil, err
	}

	if c.Image.Path != "" {
		if c.Image.Path, err = homedir.Expand(c.Image.Path); err != nil {
			return nil, fmt.Errorf("image path: %w", err)
		}
	}

	if err = c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Validate checks values which can not be used by the tools.
func (c *Config) Validate() error {
	w, err := c.ImageWidth()
	if err != nil {
		return err
	}

	switch {
	case uint64(c.Image.Capacity) > w.MaxValue():
		return fmt.Errorf("image capacity %d exceeds %s address space", c.Image.Capacity, w)
	case c.Pack.Workers < 1:
		return fmt.Errorf("invalid number of pack workers %d", c.Pack.Workers)
	case c.Pack.PathCache < 0:
		return fmt.Errorf("invalid path cache size %d", c.Pack.PathCache)
	}

	if _, err = c.LoggerPrm(); err != nil {
		return fmt.Errorf("logger: %w", err)
	}

	return nil
}

// ImageCapacity returns capacity of new images. Zero capacity in the config
// means CapacityDefault limited by the address space of the width.
func (c *Config) ImageCapacity() uint64 {
	if c.Image.Capacity != 0 {
		return uint64(c.Image.Capacity)
	}

	w, err := c.ImageWidth()
	if err != nil {
		return CapacityDefault
	}

	return min(CapacityDefault, w.MaxValue())
}

// ImageWidth returns address width of the image.
func (c *Config) ImageWidth() (ptrarith.Width, error) {
	return ptrarith.ParseWidth(c.Image.Width)
}

// Compression returns uninitialized compression config of the image.
func (c *Config) Compression() *compression.Config {
	return &compression.Config{
		Enabled: c.Image.Compress,
		Level:   c.Image.Level,
	}
}

// LoggerPrm returns parameters of the tools logger.
func (c *Config) LoggerPrm() (*logger.Prm, error) {
	var prm logger.Prm

	if err := prm.SetLevelString(c.Logger.Level); err != nil {
		return nil, err
	}

	if err := prm.SetEncoding(c.Logger.Encoding); err != nil {
		return nil, err
	}

	return &prm, nil
}
