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
	"mime"
	"strings"
)

// isJSONContentType follows the CloudEvents convention that a missing content
// type means JSON.
func isJSONContentType(ct string) bool {
	if ct == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(ct))
	}
	return mt == "application/json" || mt == "text/json" || strings.HasSuffix(mt, "+json")
}

// encodeData renders the payload for outer formats that carry data as bytes.
// Strings with a non-JSON content type are written verbatim.
func encodeData(ct string, data any) ([]byte, error) {
	if s, ok := data.(string); ok && !isJSONContentType(ct) {
		return []byte(s), nil
	}
	return json.Marshal(data)
}

// decodeData is the inverse of encodeData. JSON that fails to decode is kept
// as a string.
func decodeData(ct string, raw []byte) any {
	if isJSONContentType(ct) {
		var v any
		if err := json.Unmarshal(raw, &v); err == nil {
			return v
		}
	}
	return string(raw)
}

// formatExtension renders an extension value as a string attribute.
func formatExtension(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
