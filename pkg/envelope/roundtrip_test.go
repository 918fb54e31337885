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
	"math/rand"
	"testing"
	"time"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/require"

	"knative.dev/envelope/pkg/envelope"
	"knative.dev/envelope/pkg/envelope/envelopetest"
)

type fuzzedAttributes struct {
	ID              string
	Source          string
	Type            string
	Subject         *string
	DataSchema      *string
	DataContentType *string
	Time            *time.Time
	Data            map[string]string
	Extensions      map[string]string
	Numbers         map[string]int32
}

func (a fuzzedAttributes) options() []envelope.Option {
	var opts []envelope.Option
	if a.Subject != nil {
		opts = append(opts, envelope.WithSubject(*a.Subject))
	}
	if a.DataSchema != nil {
		opts = append(opts, envelope.WithDataSchema(*a.DataSchema))
	}
	if a.DataContentType != nil {
		opts = append(opts, envelope.WithDataContentType(*a.DataContentType))
	}
	if a.Time != nil {
		// Fuzzed times are in the local zone, whose historical offsets may have
		// seconds that RFC 3339 cannot express.
		opts = append(opts, envelope.WithTime(a.Time.UTC()))
	}
	if a.Data != nil {
		opts = append(opts, envelope.WithData(a.Data))
	}
	for k, v := range a.Extensions {
		opts = append(opts, envelope.WithExtension("s"+k, v))
	}
	for k, v := range a.Numbers {
		opts = append(opts, envelope.WithExtension("n"+k, v))
	}
	return opts
}

func TestJSONRoundTripFuzz(t *testing.T) {
	seed := time.Now().UnixNano()
	t.Logf("seed: %d", seed)
	f := fuzz.New().NilChance(.3).NumElements(0, 4).RandSource(rand.NewSource(seed))

	for i := 0; i < 500; i++ {
		var a fuzzedAttributes
		f.Fuzz(&a)

		want, err := envelope.New("id-"+a.ID, "src-"+a.Source, "type-"+a.Type, a.options()...)
		require.NoError(t, err)

		b, err := want.ToJSON()
		require.NoError(t, err)
		got, err := envelope.ParseJSON(b)
		require.NoError(t, err, string(b))
		envelopetest.AssertEnvelopeEqual(t, want, got)

		// The same holds for the structure path.
		m, err := envelope.FromMapping(structureOf(t, b))
		require.NoError(t, err)
		envelopetest.AssertEnvelopeEqual(t, want, m)
	}
}

func structureOf(t *testing.T, b []byte) map[string]any {
	t.Helper()
	e, err := envelope.ParseJSON(b)
	require.NoError(t, err)
	m := e.Extensions()
	m[envelope.IDKey] = e.ID()
	m[envelope.SourceKey] = e.Source()
	m[envelope.SpecVersionKey] = e.SpecVersion()
	m[envelope.TypeKey] = e.Type()
	if v, ok := e.Subject().Get(); ok {
		m[envelope.SubjectKey] = v
	}
	if v, ok := e.DataSchema().Get(); ok {
		m[envelope.DataSchemaKey] = v
	}
	if v, ok := e.DataContentType().Get(); ok {
		m[envelope.DataContentTypeKey] = v
	}
	if v, ok := e.Time().Get(); ok {
		m[envelope.TimeKey] = envelope.FormatTime(v)
	}
	if v, ok := e.Data().Get(); ok {
		m[envelope.DataKey] = v
	}
	return m
}
