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
	"go.uber.org/zap/zapcore"
)

var _ zapcore.ObjectMarshaler = (*Envelope)(nil)

// MarshalLogObject writes the context attributes and extensions of the
// envelope. The payload is never logged.
func (e *Envelope) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString(IDKey, e.id)
	enc.AddString(SourceKey, e.source)
	enc.AddString(SpecVersionKey, e.specVersion)
	enc.AddString(TypeKey, e.eventType)
	if v, ok := e.dataContentType.Get(); ok {
		enc.AddString(DataContentTypeKey, v)
	}
	if v, ok := e.dataSchema.Get(); ok {
		enc.AddString(DataSchemaKey, v)
	}
	if v, ok := e.subject.Get(); ok {
		enc.AddString(SubjectKey, v)
	}
	if v, ok := e.time.Get(); ok {
		enc.AddTime(TimeKey, v)
	}
	if e.extensions.len() == 0 {
		return nil
	}
	return enc.AddObject("extensions", zapcore.ObjectMarshalerFunc(func(enc zapcore.ObjectEncoder) error {
		for _, name := range e.extensions.names {
			if err := enc.AddReflected(name, e.extensions.values[name]); err != nil {
				return err
			}
		}
		return nil
	}))
}
