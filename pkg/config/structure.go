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

import "knative.dev/envelope/pkg/envelope"

// Config holds the settings shared by the envelope commands.
type Config struct {
	LogLevel    string       `toml:"logLevel" envconfig:"LOG_LEVEL"`
	SpecVersion string       `toml:"specVersion" envconfig:"SPEC_VERSION"`
	Output      OutputConfig `toml:"output" envconfig:"OUTPUT"`
}

// OutputConfig controls how envelopes are rendered as JSON.
type OutputConfig struct {
	Indent     string `toml:"indent" envconfig:"INDENT"`
	Prefix     string `toml:"prefix" envconfig:"PREFIX"`
	EscapeHTML bool   `toml:"escapeHTML" envconfig:"ESCAPE_HTML"`
}

// MarshalOptions translates the output section into options for ToJSON.
func (c *Config) MarshalOptions() []envelope.MarshalOption {
	opts := []envelope.MarshalOption{envelope.WithEscapeHTML(c.Output.EscapeHTML)}
	if c.Output.Indent != "" || c.Output.Prefix != "" {
		opts = append(opts, envelope.WithIndent(c.Output.Prefix, c.Output.Indent))
	}
	return opts
}
