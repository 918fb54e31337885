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
)

// MissingRequiredFieldError is returned when one of id, source, specversion
// or type is absent. Several of them may be combined into one error with
// multierr; use errors.As to inspect each.
type MissingRequiredFieldError struct {
	Field string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("missing required attribute %q", e.Field)
}

// MalformedJSONError is returned when the input is not a single valid JSON object.
type MalformedJSONError struct {
	Err error
}

func (e *MalformedJSONError) Error() string {
	return fmt.Sprintf("malformed JSON envelope: %v", e.Err)
}

func (e *MalformedJSONError) Unwrap() error {
	return e.Err
}

// MalformedTimestampError is returned when the time attribute is present but
// is not an ISO-8601 timestamp.
type MalformedTimestampError struct {
	Value string
	Err   error
}

func (e *MalformedTimestampError) Error() string {
	return fmt.Sprintf("malformed timestamp %q: %v", e.Value, e.Err)
}

func (e *MalformedTimestampError) Unwrap() error {
	return e.Err
}

// InvalidAttributeError is returned when an attribute holds a value of the
// wrong type, or an extension uses the name of a fixed attribute.
type InvalidAttributeError struct {
	Name   string
	Reason string
}

func (e *InvalidAttributeError) Error() string {
	return fmt.Sprintf("invalid attribute %q: %s", e.Name, e.Reason)
}
