/*
Copyright 2024 The Knative Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap/zapcore"
)

var location = "~/.config/envelope/config.toml"

// Load builds the configuration from the defaults, the config file if one
// exists, and finally ENVELOPE_* environment variables.
func Load() (*Config, error) {
	cfg := defaultValues()
	configFile, err := homedir.Expand(location)
	if err != nil {
		return nil, err
	}
	if fileExists(configFile) {
		if err = Read(configFile, cfg); err != nil {
			return nil, fmt.Errorf("reading %s: %w", configFile, err)
		}
	}
	if err = envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, err
	}
	if err = normalizeLogLevel(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read decodes a TOML config file into cfg. Unknown keys are an error.
func Read(configFile string, cfg *Config) error {
	r, err := os.Open(configFile)
	if err != nil {
		return err
	}
	defer r.Close()
	d := toml.NewDecoder(r)
	d.DisallowUnknownFields()
	return d.Decode(cfg)
}

func normalizeLogLevel(cfg *Config) error {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	cfg.LogLevel = level.String()
	return nil
}

func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}
