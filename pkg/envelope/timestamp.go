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
	"strings"
	"time"

	"github.com/rickb777/date"
)

// Layouts tried after RFC 3339. Values without an offset are read as UTC.
var isoLayouts = []string{
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseTime parses an ISO-8601 timestamp as found in the time attribute.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	for _, layout := range isoLayouts {
		if t, lerr := time.Parse(layout, s); lerr == nil {
			return t, nil
		}
	}
	// Date only, e.g. 2018-04-05 or 20180405.
	if !strings.ContainsAny(s, "T :") {
		if d, derr := date.ParseISO(s); derr == nil {
			return d.UTC(), nil
		}
	}
	return time.Time{}, &MalformedTimestampError{Value: s, Err: err}
}

// checkTime rejects instants that FormatTime could not render for ParseTime.
func checkTime(t time.Time) error {
	if _, err := t.MarshalText(); err != nil {
		return &InvalidAttributeError{Name: TimeKey, Reason: err.Error()}
	}
	return nil
}

// FormatTime renders t as RFC 3339 with nanosecond precision, keeping its offset.
func FormatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}
