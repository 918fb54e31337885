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

// Package envelopetest holds fixtures and matchers for envelope tests.
package envelopetest

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"knative.dev/envelope/pkg/envelope"
)

// PullRequestTime is the time attribute of PullRequestStructure.
var PullRequestTime = time.Date(2018, time.April, 5, 17, 31, 0, 0, time.UTC)

// PullRequestStructure returns the CloudEvents specification example event as
// a freshly built generic structure.
func PullRequestStructure() map[string]any {
	return map[string]any{
		"specversion":          "1.0",
		"type":                 "com.github.pull_request.opened",
		"source":               "https://github.com/cloudevents/spec/pull",
		"subject":              "123",
		"id":                   "A234-1234-1234",
		"time":                 "2018-04-05T17:31:00Z",
		"comexampleextension1": "value",
		"comexampleothervalue": float64(5),
		"datacontenttype":      "text/xml",
		"data":                 `<much wow="xml"/>`,
	}
}

// MinEnvelope returns an envelope with only the required attributes.
func MinEnvelope() *envelope.Envelope {
	return mustNew(envelope.New("min-1", "https://example.com/source", "com.example.min"))
}

// FullEnvelope returns an envelope with every attribute, two extensions and a
// JSON object payload.
func FullEnvelope() *envelope.Envelope {
	return mustNew(envelope.New("full-1", "https://example.com/source", "com.example.full",
		envelope.WithDataContentType("application/json"),
		envelope.WithDataSchema("https://example.com/schema.json"),
		envelope.WithSubject("subject-1"),
		envelope.WithTime(PullRequestTime),
		envelope.WithData(map[string]any{"message": "Hello, world!"}),
		envelope.WithExtension("exta", "value"),
		envelope.WithExtension("extb", float64(42)),
	))
}

func mustNew(e *envelope.Envelope, err error) *envelope.Envelope {
	if err != nil {
		panic(err)
	}
	return e
}

// AssertEnvelopeEqual fails the test when want and got differ, showing the
// difference between their JSON forms.
func AssertEnvelopeEqual(t testing.TB, want, got *envelope.Envelope) {
	t.Helper()
	if want.Equal(got) {
		return
	}
	t.Errorf("envelopes differ (-want, +got):\n%s", cmp.Diff(asMap(t, want), asMap(t, got)))
}

func asMap(t testing.TB, e *envelope.Envelope) map[string]any {
	t.Helper()
	if e == nil {
		return nil
	}
	b, err := e.ToJSON()
	if err != nil {
		t.Fatalf("failed to encode envelope: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	return m
}

// Matcher checks one property of an envelope.
type Matcher func(have *envelope.Envelope) error

// AllOf combines matchers together.
func AllOf(matchers ...Matcher) Matcher {
	return func(have *envelope.Envelope) error {
		for _, m := range matchers {
			if err := m(have); err != nil {
				return err
			}
		}
		return nil
	}
}

func HasID(id string) Matcher {
	return hasString(envelope.IDKey, id, (*envelope.Envelope).ID)
}

func HasSource(source string) Matcher {
	return hasString(envelope.SourceKey, source, (*envelope.Envelope).Source)
}

func HasType(ty string) Matcher {
	return hasString(envelope.TypeKey, ty, (*envelope.Envelope).Type)
}

func HasSpecVersion(v string) Matcher {
	return hasString(envelope.SpecVersionKey, v, (*envelope.Envelope).SpecVersion)
}

func hasString(name, want string, get func(*envelope.Envelope) string) Matcher {
	return func(have *envelope.Envelope) error {
		if got := get(have); got != want {
			return fmt.Errorf("expected %s %q, got %q", name, want, got)
		}
		return nil
	}
}

func HasSubject(subject string) Matcher {
	return func(have *envelope.Envelope) error {
		got, ok := have.Subject().Get()
		if !ok || got != subject {
			return fmt.Errorf("expected subject %q, got %q (present: %t)", subject, got, ok)
		}
		return nil
	}
}

// HasTime matches the time attribute as an instant.
func HasTime(want time.Time) Matcher {
	return func(have *envelope.Envelope) error {
		got, ok := have.Time().Get()
		if !ok || !got.Equal(want) {
			return fmt.Errorf("expected time %s, got %s (present: %t)", want, got, ok)
		}
		return nil
	}
}

func HasExtension(name string, want any) Matcher {
	return func(have *envelope.Envelope) error {
		got, ok := have.Extension(name)
		if !ok {
			return fmt.Errorf("expected extension %q", name)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			return fmt.Errorf("unexpected extension %q (-want, +got):\n%s", name, diff)
		}
		return nil
	}
}

func HasData(want any) Matcher {
	return func(have *envelope.Envelope) error {
		got, ok := have.Data().Get()
		if !ok {
			return fmt.Errorf("expected data")
		}
		if diff := cmp.Diff(want, got); diff != "" {
			return fmt.Errorf("unexpected data (-want, +got):\n%s", diff)
		}
		return nil
	}
}
