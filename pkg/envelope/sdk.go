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
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/cloudevents/sdk-go/v2/event"
	"github.com/cloudevents/sdk-go/v2/types"
)

// ToEvent converts the envelope into a CloudEvents SDK event, so it can be
// handed to an SDK client or protocol binding. The SDK lowercases extension
// names and only knows a handful of extension value types: integral numbers
// become int32, everything else that is not a string, boolean or time is
// carried as its JSON text.
func ToEvent(e *Envelope) (event.Event, error) {
	switch e.specVersion {
	case event.CloudEventsVersionV1, event.CloudEventsVersionV03:
	default:
		return event.Event{}, &InvalidAttributeError{
			Name:   SpecVersionKey,
			Reason: fmt.Sprintf("spec version %q is not supported by the CloudEvents SDK", e.specVersion),
		}
	}
	ev := event.New(e.specVersion)
	ev.SetID(e.id)
	ev.SetSource(e.source)
	ev.SetType(e.eventType)
	if v, ok := e.subject.Get(); ok {
		ev.SetSubject(v)
	}
	if v, ok := e.dataSchema.Get(); ok {
		ev.SetDataSchema(v)
	}
	if v, ok := e.time.Get(); ok {
		ev.SetTime(v)
	}
	ct := e.dataContentType.OrElse("")
	if e.dataContentType.IsPresent() {
		ev.SetDataContentType(ct)
	}
	for _, name := range e.extensions.names {
		v, err := toSDKExtension(e.extensions.values[name])
		if err != nil {
			return event.Event{}, fmt.Errorf("failed to convert extension %q: %w", name, err)
		}
		ev.SetExtension(name, v)
	}
	if v, ok := e.data.Get(); ok {
		raw, err := encodeData(ct, v)
		if err != nil {
			return event.Event{}, fmt.Errorf("failed to encode data: %w", err)
		}
		ev.DataEncoded = raw
		ev.DataBase64 = false
	}
	if err := ev.Validate(); err != nil {
		return event.Event{}, err
	}
	return ev, nil
}

func toSDKExtension(v any) (any, error) {
	switch t := v.(type) {
	case string, bool, int32, time.Time:
		return t, nil
	case int:
		if t >= math.MinInt32 && t <= math.MaxInt32 {
			return int32(t), nil
		}
		return strconv.Itoa(t), nil
	case int64:
		if t >= math.MinInt32 && t <= math.MaxInt32 {
			return int32(t), nil
		}
		return strconv.FormatInt(t, 10), nil
	case float64:
		if t == math.Trunc(t) && t >= math.MinInt32 && t <= math.MaxInt32 {
			return int32(t), nil
		}
		return strconv.FormatFloat(t, 'g', -1, 64), nil
	case json.Number:
		if i, err := t.Int64(); err == nil && i >= math.MinInt32 && i <= math.MaxInt32 {
			return int32(i), nil
		}
		return t.String(), nil
	default:
		return formatExtension(v)
	}
}

// FromEvent converts a CloudEvents SDK event into an envelope. Empty optional
// attributes are treated as absent. Data is decoded as JSON when the content
// type says so, and kept as a string otherwise.
func FromEvent(ev event.Event) (*Envelope, error) {
	opts := []Option{WithSpecVersion(ev.SpecVersion())}
	if v := ev.DataContentType(); v != "" {
		opts = append(opts, WithDataContentType(v))
	}
	if v := ev.DataSchema(); v != "" {
		opts = append(opts, WithDataSchema(v))
	}
	if v := ev.Subject(); v != "" {
		opts = append(opts, WithSubject(v))
	}
	if v := ev.Time(); !v.IsZero() {
		opts = append(opts, WithTime(v))
	}

	exts := ev.Extensions()
	converted := make(map[string]any, len(exts))
	for name, v := range exts {
		switch t := v.(type) {
		case string, bool, int32:
			converted[name] = t
		default:
			s, err := types.Format(v)
			if err != nil {
				return nil, &InvalidAttributeError{Name: name, Reason: err.Error()}
			}
			converted[name] = s
		}
	}
	opts = append(opts, WithExtensions(converted))

	if raw := ev.Data(); raw != nil {
		opts = append(opts, WithData(decodeData(ev.DataContentType(), raw)))
	}
	return New(ev.ID(), ev.Source(), ev.Type(), opts...)
}
