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

package envelope

import (
	"fmt"

	conformance "github.com/cloudevents/conformance/pkg/event"
)

// FromConformance converts an event read from a CloudEvents conformance YAML
// file. All conformance attributes are strings; extensions stay strings.
func FromConformance(ev conformance.Event) (*Envelope, error) {
	a := ev.Attributes
	opts := []Option{WithSpecVersion(a.SpecVersion)}
	if a.DataContentType != "" {
		opts = append(opts, WithDataContentType(a.DataContentType))
	}
	// schemaurl is the pre-1.0 name of dataschema.
	if a.DataSchema != "" {
		opts = append(opts, WithDataSchema(a.DataSchema))
	} else if a.SchemaURL != "" {
		opts = append(opts, WithDataSchema(a.SchemaURL))
	}
	if a.Subject != "" {
		opts = append(opts, WithSubject(a.Subject))
	}
	if a.Time != "" {
		t, err := ParseTime(a.Time)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithTime(t))
	}
	if len(a.Extensions) > 0 {
		exts := make(map[string]any, len(a.Extensions))
		for k, v := range a.Extensions {
			exts[k] = v
		}
		opts = append(opts, WithExtensions(exts))
	}
	if ev.Data != "" {
		opts = append(opts, WithData(decodeData(a.DataContentType, []byte(ev.Data))))
	}
	return New(a.ID, a.Source, a.Type, opts...)
}

// ToConformance converts the envelope into a structured-mode conformance event.
// Non-string extension values are written as JSON text.
func ToConformance(e *Envelope) (conformance.Event, error) {
	ct := e.dataContentType.OrElse("")
	a := conformance.ContextAttributes{
		SpecVersion:     e.specVersion,
		Type:            e.eventType,
		ID:              e.id,
		Source:          e.source,
		Subject:         e.subject.OrElse(""),
		DataSchema:      e.dataSchema.OrElse(""),
		DataContentType: ct,
	}
	if t, ok := e.time.Get(); ok {
		a.Time = FormatTime(t)
	}
	if e.extensions.len() > 0 {
		a.Extensions = make(conformance.Extensions, e.extensions.len())
		for _, name := range e.extensions.names {
			s, err := formatExtension(e.extensions.values[name])
			if err != nil {
				return conformance.Event{}, fmt.Errorf("failed to format extension %q: %w", name, err)
			}
			a.Extensions[name] = s
		}
	}

	out := conformance.Event{
		Mode:       conformance.StructuredMode,
		Attributes: a,
	}
	if v, ok := e.data.Get(); ok {
		raw, err := encodeData(ct, v)
		if err != nil {
			return conformance.Event{}, fmt.Errorf("failed to encode data: %w", err)
		}
		out.Data = string(raw)
	}
	return out, nil
}
