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

package envelope_test

import (
	"testing"

	conformance "github.com/cloudevents/conformance/pkg/event"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knative.dev/envelope/pkg/envelope"
	"knative.dev/envelope/pkg/envelope/envelopetest"
)

func TestToConformance(t *testing.T) {
	e, err := envelope.FromMapping(envelopetest.PullRequestStructure())
	require.NoError(t, err)

	got, err := envelope.ToConformance(e)
	require.NoError(t, err)

	want := conformance.Event{
		Mode: conformance.StructuredMode,
		Attributes: conformance.ContextAttributes{
			SpecVersion:     "1.0",
			Type:            "com.github.pull_request.opened",
			Time:            "2018-04-05T17:31:00Z",
			ID:              "A234-1234-1234",
			Source:          "https://github.com/cloudevents/spec/pull",
			Subject:         "123",
			DataContentType: "text/xml",
			Extensions: conformance.Extensions{
				"comexampleextension1": "value",
				"comexampleothervalue": "5",
			},
		},
		Data: `<much wow="xml"/>`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected conformance event (-want, +got):\n%s", diff)
	}
}

func TestFromConformance(t *testing.T) {
	tests := []struct {
		name    string
		in      conformance.Event
		want    *envelope.Envelope
		wantErr bool
	}{{
		name: "json data",
		in: conformance.Event{
			Mode: conformance.StructuredMode,
			Attributes: conformance.ContextAttributes{
				SpecVersion:     "1.0",
				Type:            "com.example.conformance",
				ID:              "conf-1",
				Source:          "/conformance",
				Time:            "2018-04-05T17:31:00Z",
				DataContentType: "application/json",
				Extensions:      conformance.Extensions{"exta": "a"},
			},
			Data: `{"n":1}`,
		},
		want: mustNew(t, "conf-1", "/conformance", "com.example.conformance",
			envelope.WithTime(envelopetest.PullRequestTime),
			envelope.WithDataContentType("application/json"),
			envelope.WithExtension("exta", "a"),
			envelope.WithData(map[string]any{"n": 1})),
	}, {
		name: "legacy schemaurl",
		in: conformance.Event{
			Attributes: conformance.ContextAttributes{
				SpecVersion: "0.3",
				Type:        "com.example.conformance",
				ID:          "conf-2",
				Source:      "/conformance",
				SchemaURL:   "/schema",
			},
		},
		want: mustNew(t, "conf-2", "/conformance", "com.example.conformance",
			envelope.WithSpecVersion("0.3"),
			envelope.WithDataSchema("/schema")),
	}, {
		name: "missing id",
		in: conformance.Event{
			Attributes: conformance.ContextAttributes{SpecVersion: "1.0", Type: "t", Source: "/s"},
		},
		wantErr: true,
	}, {
		name: "bad time",
		in: conformance.Event{
			Attributes: conformance.ContextAttributes{SpecVersion: "1.0", Type: "t", Source: "/s", ID: "1", Time: "noon"},
		},
		wantErr: true,
	}}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := envelope.FromConformance(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			envelopetest.AssertEnvelopeEqual(t, tc.want, got)
		})
	}
}

func TestConformanceRoundTrip(t *testing.T) {
	e := mustNew(t, "1", "/src", "t",
		envelope.WithSubject("s"),
		envelope.WithTime(envelopetest.PullRequestTime),
		envelope.WithExtension("ext", "v"),
		envelope.WithDataContentType("text/plain"),
		envelope.WithData("plain text"))

	c, err := envelope.ToConformance(e)
	require.NoError(t, err)
	got, err := envelope.FromConformance(c)
	require.NoError(t, err)
	envelopetest.AssertEnvelopeEqual(t, e, got)
}
