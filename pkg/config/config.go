// Copyright 2025 Velda Inc
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads mount settings from flags, FOLDFS_ environment
// variables and an optional YAML file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"velda.io/foldfs/pkg/casefold"
	"velda.io/foldfs/pkg/foldfs"
)

const EnvPrefix = "FOLDFS"

type Config struct {
	Fold           string        `mapstructure:"fold" validate:"oneof=ascii simple full"`
	LogLevel       string        `mapstructure:"log_level" validate:"omitempty,oneof=panic fatal error warn warning info debug trace"`
	MetricsAddress string        `mapstructure:"metrics_address" validate:"omitempty,hostname_port"`
	EntryTimeout   time.Duration `mapstructure:"entry_timeout" validate:"gte=0s"`
	AttrTimeout    time.Duration `mapstructure:"attr_timeout" validate:"gte=0s"`
	// Cached negative lookups would hide names created under another
	// spelling, so this stays 0 unless set explicitly.
	NegativeTimeout time.Duration `mapstructure:"negative_timeout" validate:"gte=0s"`
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"fold":            "fold",
	"log-level":       "log_level",
	"metrics-address": "metrics_address",
	"entry-timeout":   "entry_timeout",
	"attr-timeout":    "attr_timeout",
}

var validate = validator.New()

func setDefaults(v *viper.Viper) {
	v.SetDefault("fold", casefold.Default)
	v.SetDefault("log_level", "info")
	v.SetDefault("metrics_address", "")
	v.SetDefault("entry_timeout", foldfs.DefaultEntryTimeout)
	v.SetDefault("attr_timeout", foldfs.DefaultAttrTimeout)
	v.SetDefault("negative_timeout", foldfs.DefaultNegativeTimeout)
}

// Load reads the configuration. path may be empty, in which case only
// defaults, the environment and flags apply. flags may be nil. Only flags
// that were set on the command line override other sources.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Fold = strings.ToLower(cfg.Fold)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field and reports the first violation.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		e := verrs[0]
		return fmt.Errorf("invalid config: %s: failed '%s' check (value: %v)", e.Namespace(), e.Tag(), e.Value())
	}
	return fmt.Errorf("invalid config: %w", err)
}

// Folder returns the configured case folding strategy.
func (c *Config) Folder() (casefold.Folder, error) {
	return casefold.Lookup(c.Fold)
}
