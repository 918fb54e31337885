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

package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knative.dev/envelope/pkg/config"
	"knative.dev/envelope/pkg/envelope"
)

func TestRun(t *testing.T) {
	orig := now
	defer func() { now = orig }()
	now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	cfg := &config.Config{SpecVersion: envelope.DefaultSpecVersion}
	tests := []struct {
		name string
		args []string
		want string
	}{{
		name: "defaults to now",
		args: []string{"-id", "1", "-source", "/src", "-type", "t"},
		want: `{"id":"1","source":"/src","specversion":"1.0","type":"t","time":"2024-01-02T03:04:05Z"}`,
	}, {
		name: "json data and extensions",
		args: []string{"-id", "1", "-source", "/src", "-type", "t", "-time", "",
			"-data", `{"hello":"world!"}`, "-datacontenttype", "application/json",
			"-ext", "zeta=1", "-ext", "alpha=a=b"},
		want: `{"id":"1","source":"/src","specversion":"1.0","type":"t","data":{"hello":"world!"},"zeta":"1","alpha":"a=b","datacontenttype":"application/json"}`,
	}, {
		name: "plain data and explicit time",
		args: []string{"-id", "1", "-source", "/src", "-type", "t", "-subject", "s",
			"-dataschema", "/schema", "-data", "hi there", "-time", "2018-04-05T17:31:00Z"},
		want: `{"id":"1","source":"/src","specversion":"1.0","type":"t","data":"hi there","dataschema":"/schema","subject":"s","time":"2018-04-05T17:31:00Z"}`,
	}}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, run(cfg, tc.args, &out))
			assert.Equal(t, tc.want+"\n", out.String())
		})
	}
}

func TestRunYAML(t *testing.T) {
	var out bytes.Buffer
	args := []string{"-id", "1", "-source", "/src", "-type", "t", "-time", "",
		"-data", `{"hello":"world!"}`, "-ext", "beats=true", "-output", "yaml"}
	require.NoError(t, run(&config.Config{SpecVersion: "1.0"}, args, &out))
	assert.Equal(t, `beats: "true"
data:
  hello: world!
id: "1"
source: /src
specversion: "1.0"
type: t
`, out.String())
}

func TestRunGeneratesIDAndSource(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(&config.Config{SpecVersion: "1.0"}, []string{"-time", ""}, &out))

	e, err := envelope.ParseJSON(out.Bytes())
	require.NoError(t, err)
	assert.Len(t, e.ID(), 36)
	assert.NotEmpty(t, e.Source())
	assert.Equal(t, "dev.knative.envelope.demo", e.Type())
	assert.False(t, e.Time().IsPresent())
}

func TestRunErrors(t *testing.T) {
	cfg := &config.Config{SpecVersion: "1.0"}
	for name, args := range map[string][]string{
		"bad time":       {"-time", "yesterday"},
		"bad extension":  {"-ext", "novalue"},
		"fixed name ext": {"-ext", "id=2"},
		"extra argument": {"http://localhost:8080"},
		"bad output":     {"-output", "xml"},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, run(cfg, args, &bytes.Buffer{}))
		})
	}
}
