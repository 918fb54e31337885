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

// Package envelope models a CloudEvents envelope and converts it to and from
// the structured JSON format.
package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"go.uber.org/multierr"
)

const (
	IDKey              = "id"
	SourceKey          = "source"
	SpecVersionKey     = "specversion"
	TypeKey            = "type"
	DataContentTypeKey = "datacontenttype"
	DataSchemaKey      = "dataschema"
	SubjectKey         = "subject"
	TimeKey            = "time"
	DataKey            = "data"

	DefaultSpecVersion = "1.0"
)

var fixedAttributes = map[string]struct{}{
	IDKey:              {},
	SourceKey:          {},
	SpecVersionKey:     {},
	TypeKey:            {},
	DataContentTypeKey: {},
	DataSchemaKey:      {},
	SubjectKey:         {},
	TimeKey:            {},
	DataKey:            {},
}

// IsFixedAttribute reports whether name is one of the context attributes
// (or data) that can never be used as an extension.
func IsFixedAttribute(name string) bool {
	_, ok := fixedAttributes[name]
	return ok
}

// Envelope is a single CloudEvent. It is built once by New, ParseJSON,
// FromMapping or FromStructure and is read-only afterwards.
type Envelope struct {
	id          string
	source      string
	specVersion string
	eventType   string

	dataContentType Optional[string]
	dataSchema      Optional[string]
	subject         Optional[string]
	time            Optional[time.Time]
	data            Optional[any]

	extensions extensions
}

// extensions keeps extension values together with the order they were set in.
type extensions struct {
	names  []string
	values map[string]any
}

func (x *extensions) set(name string, v any) {
	if x.values == nil {
		x.values = make(map[string]any)
	}
	if _, ok := x.values[name]; !ok {
		x.names = append(x.names, name)
	}
	x.values[name] = v
}

func (x *extensions) get(name string) (any, bool) {
	v, ok := x.values[name]
	return v, ok
}

func (x *extensions) len() int {
	return len(x.names)
}

// Option configures an Envelope built by New.
type Option func(*Envelope) error

func WithSpecVersion(v string) Option {
	return func(e *Envelope) error {
		e.specVersion = v
		return nil
	}
}

func WithDataContentType(ct string) Option {
	return func(e *Envelope) error {
		e.dataContentType = Some(ct)
		return nil
	}
}

func WithDataSchema(schema string) Option {
	return func(e *Envelope) error {
		e.dataSchema = Some(schema)
		return nil
	}
}

func WithSubject(subject string) Option {
	return func(e *Envelope) error {
		e.subject = Some(subject)
		return nil
	}
}

// WithTime sets the event time. Times without an RFC 3339 form, such as years
// past 9999, are rejected.
func WithTime(t time.Time) Option {
	return func(e *Envelope) error {
		if err := checkTime(t); err != nil {
			return err
		}
		e.time = Some(t)
		return nil
	}
}

// WithData sets the payload. A nil payload is kept and emitted as JSON null.
func WithData(data any) Option {
	return func(e *Envelope) error {
		e.data = Some(data)
		return nil
	}
}

// WithExtension adds an extension attribute. Setting the same name twice keeps
// the last value at the position of the first.
func WithExtension(name string, value any) Option {
	return func(e *Envelope) error {
		if name == "" {
			return &InvalidAttributeError{Name: name, Reason: "extension name is empty"}
		}
		if IsFixedAttribute(name) {
			return &InvalidAttributeError{Name: name, Reason: "name is reserved for a context attribute"}
		}
		e.extensions.set(name, value)
		return nil
	}
}

// WithExtensions adds every entry of exts, in name order.
func WithExtensions(exts map[string]any) Option {
	return func(e *Envelope) error {
		var errs error
		for _, name := range sortedKeys(exts) {
			errs = multierr.Append(errs, WithExtension(name, exts[name])(e))
		}
		return errs
	}
}

// New builds an Envelope. id, source and eventType are required, and so is the
// spec version, which defaults to DefaultSpecVersion. Empty strings count as
// absent.
func New(id, source, eventType string, opts ...Option) (*Envelope, error) {
	e := &Envelope{
		id:          id,
		source:      source,
		specVersion: DefaultSpecVersion,
		eventType:   eventType,
	}
	var errs error
	for _, opt := range opts {
		errs = multierr.Append(errs, opt(e))
	}
	if err := multierr.Append(e.checkRequired(), errs); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Envelope) checkRequired() error {
	var errs error
	for _, f := range []struct {
		name, value string
	}{
		{IDKey, e.id},
		{SourceKey, e.source},
		{SpecVersionKey, e.specVersion},
		{TypeKey, e.eventType},
	} {
		if f.value == "" {
			errs = multierr.Append(errs, &MissingRequiredFieldError{Field: f.name})
		}
	}
	return errs
}

func (e *Envelope) ID() string          { return e.id }
func (e *Envelope) Source() string      { return e.source }
func (e *Envelope) SpecVersion() string { return e.specVersion }
func (e *Envelope) Type() string        { return e.eventType }

func (e *Envelope) DataContentType() Optional[string] { return e.dataContentType }
func (e *Envelope) DataSchema() Optional[string]      { return e.dataSchema }
func (e *Envelope) Subject() Optional[string]         { return e.subject }
func (e *Envelope) Time() Optional[time.Time]         { return e.time }

// Data returns the payload exactly as it was given or decoded.
func (e *Envelope) Data() Optional[any] { return e.data }

// Extension returns the value of the named extension. Unknown names yield nil, false.
func (e *Envelope) Extension(name string) (any, bool) {
	return e.extensions.get(name)
}

// ExtensionNames returns the extension names in their stored order.
func (e *Envelope) ExtensionNames() []string {
	return append([]string(nil), e.extensions.names...)
}

// Extensions returns a copy of the extension bag.
func (e *Envelope) Extensions() map[string]any {
	out := make(map[string]any, e.extensions.len())
	for _, name := range e.extensions.names {
		out[name] = e.extensions.values[name]
	}
	return out
}

// Equal reports whether both envelopes carry the same attributes. Times are
// compared as instants, and data and extension values by their JSON encoding,
// so a value survives a JSON round trip as equal. Extension order is ignored.
func (e *Envelope) Equal(o *Envelope) bool {
	if e == nil || o == nil {
		return e == o
	}
	if e.id != o.id || e.source != o.source || e.specVersion != o.specVersion || e.eventType != o.eventType {
		return false
	}
	if e.dataContentType != o.dataContentType || e.dataSchema != o.dataSchema || e.subject != o.subject {
		return false
	}
	et, eok := e.time.Get()
	ot, ook := o.time.Get()
	if eok != ook || !et.Equal(ot) {
		return false
	}
	ed, eok := e.data.Get()
	od, ook := o.data.Get()
	if eok != ook || !sameValue(ed, od) {
		return false
	}
	if e.extensions.len() != o.extensions.len() {
		return false
	}
	for _, name := range e.extensions.names {
		ov, ok := o.extensions.get(name)
		if !ok || !sameValue(e.extensions.values[name], ov) {
			return false
		}
	}
	return true
}

func sameValue(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	ab, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

// String returns a human-readable dump of the envelope.
func (e *Envelope) String() string {
	b := strings.Builder{}

	b.WriteString("Context Attributes,\n")
	fmt.Fprintf(&b, "  specversion: %s\n", e.specVersion)
	fmt.Fprintf(&b, "  type: %s\n", e.eventType)
	fmt.Fprintf(&b, "  source: %s\n", e.source)
	if v, ok := e.subject.Get(); ok {
		fmt.Fprintf(&b, "  subject: %s\n", v)
	}
	fmt.Fprintf(&b, "  id: %s\n", e.id)
	if v, ok := e.time.Get(); ok {
		fmt.Fprintf(&b, "  time: %s\n", FormatTime(v))
	}
	if v, ok := e.dataSchema.Get(); ok {
		fmt.Fprintf(&b, "  dataschema: %s\n", v)
	}
	if v, ok := e.dataContentType.Get(); ok {
		fmt.Fprintf(&b, "  datacontenttype: %s\n", v)
	}

	if e.extensions.len() > 0 {
		b.WriteString("Extensions,\n")
		for _, name := range e.extensions.names {
			fmt.Fprintf(&b, "  %s: %v\n", name, e.extensions.values[name])
		}
	}

	if v, ok := e.data.Get(); ok {
		b.WriteString("Data,\n  ")
		if s, isString := v.(string); isString {
			b.WriteString(s)
		} else if raw, err := json.MarshalIndent(v, "  ", "  "); err == nil {
			b.Write(raw)
		} else {
			fmt.Fprintf(&b, "%v", v)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
