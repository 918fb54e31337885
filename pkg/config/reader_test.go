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
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"knative.dev/envelope/pkg/envelope"
)

func TestLoadDefaults(t *testing.T) {
	withConfigContents(t, "", false)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel.String(), cfg.LogLevel)
	assert.Equal(t, envelope.DefaultSpecVersion, cfg.SpecVersion)
	assert.Equal(t, OutputConfig{}, cfg.Output)
}

func TestLoadFile(t *testing.T) {
	withConfigContents(t, `logLevel = 'DEBUG'
specVersion = '0.3'

[output]
indent = '  '
escapeHTML = true
`, true)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel.String(), cfg.LogLevel)
	assert.Equal(t, "0.3", cfg.SpecVersion)
	assert.Equal(t, OutputConfig{Indent: "  ", EscapeHTML: true}, cfg.Output)
}

func TestLoadUnknownKey(t *testing.T) {
	withConfigContents(t, `colour = 'blue'
`, true)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadInvalidFile(t *testing.T) {
	withConfigContents(t, `logLevel = 'debug
`, true)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	withConfigContents(t, `logLevel = 'debug'

[output]
indent = '  '
`, true)
	t.Setenv("ENVELOPE_LOG_LEVEL", "error")
	t.Setenv("ENVELOPE_OUTPUT_INDENT", "\t")
	t.Setenv("ENVELOPE_OUTPUT_ESCAPE_HTML", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, zapcore.ErrorLevel.String(), cfg.LogLevel)
	assert.Equal(t, "\t", cfg.Output.Indent)
	assert.True(t, cfg.Output.EscapeHTML)
}

func TestLoadInvalidLogLevel(t *testing.T) {
	withConfigContents(t, "", false)
	t.Setenv("ENVELOPE_LOG_LEVEL", "chatty")

	_, err := Load()
	assert.Error(t, err)
}

func TestMarshalOptions(t *testing.T) {
	e, err := envelope.New("1", "/src", "t", envelope.WithData("<b>"))
	require.NoError(t, err)

	compact := &Config{}
	b, err := e.ToJSON(compact.MarshalOptions()...)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"1","source":"/src","specversion":"1.0","type":"t","data":"<b>"}`, string(b))

	pretty := &Config{Output: OutputConfig{Indent: " ", EscapeHTML: true}}
	b, err = e.ToJSON(pretty.MarshalOptions()...)
	require.NoError(t, err)
	assert.Equal(t, "{\n \"id\": \"1\",\n \"source\": \"/src\",\n \"specversion\": \"1.0\",\n \"type\": \"t\",\n \"data\": \"\\u003cb\\u003e\"\n}", string(b))
}

// withConfigContents points the home directory at a temp dir and, when
// present is set, writes the config file there.
func withConfigContents(t *testing.T, content string, present bool) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })

	expanded, err := homedir.Expand(location)
	require.NoError(t, err)
	if !present {
		return
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(expanded), os.ModePerm))
	require.NoError(t, os.WriteFile(expanded, []byte(content), 0o644))
}
