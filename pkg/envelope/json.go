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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/multierr"
)

type marshalOptions struct {
	prefix     string
	indent     string
	escapeHTML bool
}

// MarshalOption tunes the JSON text produced by ToJSON.
type MarshalOption func(*marshalOptions)

// WithIndent indents the output like json.MarshalIndent.
func WithIndent(prefix, indent string) MarshalOption {
	return func(o *marshalOptions) {
		o.prefix = prefix
		o.indent = indent
	}
}

// WithEscapeHTML escapes <, > and & inside JSON strings. Off by default.
func WithEscapeHTML(escape bool) MarshalOption {
	return func(o *marshalOptions) {
		o.escapeHTML = escape
	}
}

type parseOptions struct {
	useNumber bool
}

// ParseOption tunes how ParseJSON decodes values.
type ParseOption func(*parseOptions)

// WithUseNumber decodes numbers into json.Number instead of float64.
func WithUseNumber() ParseOption {
	return func(o *parseOptions) {
		o.useNumber = true
	}
}

// ToJSON renders the envelope in the structured JSON format. Keys are written as
// id, source, specversion, type, data, the extensions in stored order, then
// datacontenttype, dataschema, subject and time. Absent attributes are omitted,
// data included.
func (e *Envelope) ToJSON(opts ...MarshalOption) ([]byte, error) {
	o := marshalOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	n := 0
	write := func(name string, v any) error {
		if n > 0 {
			buf.WriteByte(',')
		}
		n++
		if err := encodeValue(&buf, name, o.escapeHTML); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := encodeValue(&buf, v, o.escapeHTML); err != nil {
			return fmt.Errorf("failed to encode %q: %w", name, err)
		}
		return nil
	}

	var err error
	err = multierr.Append(err, write(IDKey, e.id))
	err = multierr.Append(err, write(SourceKey, e.source))
	err = multierr.Append(err, write(SpecVersionKey, e.specVersion))
	err = multierr.Append(err, write(TypeKey, e.eventType))
	if v, ok := e.data.Get(); ok {
		err = multierr.Append(err, write(DataKey, v))
	}
	for _, name := range e.extensions.names {
		err = multierr.Append(err, write(name, e.extensions.values[name]))
	}
	if v, ok := e.dataContentType.Get(); ok {
		err = multierr.Append(err, write(DataContentTypeKey, v))
	}
	if v, ok := e.dataSchema.Get(); ok {
		err = multierr.Append(err, write(DataSchemaKey, v))
	}
	if v, ok := e.subject.Get(); ok {
		err = multierr.Append(err, write(SubjectKey, v))
	}
	if v, ok := e.time.Get(); ok {
		err = multierr.Append(err, write(TimeKey, FormatTime(v)))
	}
	if err != nil {
		return nil, err
	}
	buf.WriteByte('}')

	if o.prefix == "" && o.indent == "" {
		return buf.Bytes(), nil
	}
	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), o.prefix, o.indent); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// MarshalJSON implements json.Marshaler.
func (e *Envelope) MarshalJSON() ([]byte, error) {
	return e.ToJSON()
}

// UnmarshalJSON implements json.Unmarshaler. A JSON null leaves e unchanged.
func (e *Envelope) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	parsed, err := ParseJSON(b)
	if err != nil {
		return err
	}
	*e = *parsed
	return nil
}

func encodeValue(buf *bytes.Buffer, v any, escapeHTML bool) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(escapeHTML)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encode terminates every value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

// ParseJSON reads one envelope in the structured JSON format. The order of the
// top-level keys is kept for the extensions. A key given twice keeps its
// last value.
func ParseJSON(text []byte, opts ...ParseOption) (*Envelope, error) {
	o := parseOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	members, err := decodeObject(text, o)
	if err != nil {
		return nil, &MalformedJSONError{Err: err}
	}
	return fromMembers(members)
}

type member struct {
	name  string
	value any
}

func decodeObject(text []byte, o parseOptions) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(text))
	if o.useNumber {
		dec.UseNumber()
	}

	tok, err := dec.Token()
	if err == io.EOF {
		return nil, errors.New("empty input")
	} else if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected a JSON object, got %v", tok)
	}

	var members []member
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected an object key, got %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		if i, dup := index[name]; dup {
			members[i].value = v
			continue
		}
		index[name] = len(members)
		members = append(members, member{name: name, value: v})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			return nil, errors.New("unexpected data after the JSON object")
		}
		return nil, err
	}
	return members, nil
}

// FromMapping builds an envelope from a generic structure owned by someone
// else. Nested maps, slices and arrays are copied first, so a JSON-shaped m
// shares no mutable state with the envelope. Pointers and structs are not
// descended into.
func FromMapping(m map[string]any) (*Envelope, error) {
	return FromStructure(deepCopy(m).(map[string]any))
}

// FromStructure builds an envelope from a generic structure, such as the result
// of decoding JSON into map[string]any. Known attribute names fill the fixed
// fields and every other key becomes an extension. m itself is left untouched
// but nested values are shared with the envelope; use FromMapping when that
// matters. Extensions are stored in name order.
func FromStructure(m map[string]any) (*Envelope, error) {
	members := make([]member, 0, len(m))
	for _, name := range sortedKeys(m) {
		members = append(members, member{name: name, value: m[name]})
	}
	return fromMembers(members)
}

func fromMembers(members []member) (*Envelope, error) {
	e := &Envelope{}
	var errs error
	for _, m := range members {
		var err error
		switch m.name {
		case IDKey:
			e.id, err = requiredString(m)
		case SourceKey:
			e.source, err = requiredString(m)
		case SpecVersionKey:
			e.specVersion, err = requiredString(m)
		case TypeKey:
			e.eventType, err = requiredString(m)
		case DataContentTypeKey:
			e.dataContentType, err = optionalString(m)
		case DataSchemaKey:
			e.dataSchema, err = optionalString(m)
		case SubjectKey:
			e.subject, err = optionalString(m)
		case TimeKey:
			e.time, err = optionalTime(m)
		case DataKey:
			e.data = Some(m.value)
		case "":
			err = &InvalidAttributeError{Name: m.name, Reason: "extension name is empty"}
		default:
			e.extensions.set(m.name, m.value)
		}
		errs = multierr.Append(errs, err)
	}
	if err := multierr.Append(e.checkRequired(), errs); err != nil {
		return nil, err
	}
	return e, nil
}

// requiredString leaves a null value empty so that checkRequired reports it.
func requiredString(m member) (string, error) {
	switch v := m.value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", &InvalidAttributeError{Name: m.name, Reason: fmt.Sprintf("expected a string, got %T", v)}
	}
}

func optionalString(m member) (Optional[string], error) {
	switch v := m.value.(type) {
	case nil:
		return None[string](), nil
	case string:
		return Some(v), nil
	default:
		return None[string](), &InvalidAttributeError{Name: m.name, Reason: fmt.Sprintf("expected a string, got %T", v)}
	}
}

func optionalTime(m member) (Optional[time.Time], error) {
	switch v := m.value.(type) {
	case nil:
		return None[time.Time](), nil
	case time.Time:
		if err := checkTime(v); err != nil {
			return None[time.Time](), err
		}
		return Some(v), nil
	case string:
		t, err := ParseTime(v)
		if err != nil {
			return None[time.Time](), err
		}
		return Some(t), nil
	default:
		return None[time.Time](), &MalformedTimestampError{
			Value: fmt.Sprint(v),
			Err:   fmt.Errorf("expected a string, got %T", v),
		}
	}
}
