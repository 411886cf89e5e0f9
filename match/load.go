/* Copyright 2026 the marketbot authors
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package match

import (
	"encoding/json"
	"fmt"

	"github.com/jsccast/yaml"
)

// LoadPatterns parses a YAML (or JSON) document holding a list of
// patterns.
func LoadPatterns(bs []byte) ([]*Pattern, error) {
	var raw interface{}
	if err := yaml.Unmarshal(bs, &raw); err != nil {
		return nil, err
	}
	raw = canonicalize(raw)

	// Round-trip through JSON to get the condition envelopes
	// decoded.
	js, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}

	var patterns []*Pattern
	if err = json.Unmarshal(js, &patterns); err != nil {
		return nil, err
	}

	for i, p := range patterns {
		if p.Name == "" {
			return nil, fmt.Errorf("pattern %d has no name", i)
		}
		if len(p.Conditions) == 0 {
			return nil, fmt.Errorf("pattern %q has no conditions", p.Name)
		}
	}

	return patterns, nil
}

// canonicalize rewrites YAML's map[interface{}]interface{} maps as
// map[string]interface{} so the structure can be JSON-marshaled.
func canonicalize(x interface{}) interface{} {
	switch vv := x.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(vv))
		for k, v := range vv {
			m[fmt.Sprintf("%v", k)] = canonicalize(v)
		}
		return m
	case map[string]interface{}:
		m := make(map[string]interface{}, len(vv))
		for k, v := range vv {
			m[k] = canonicalize(v)
		}
		return m
	case []interface{}:
		acc := make([]interface{}, len(vv))
		for i, v := range vv {
			acc[i] = canonicalize(v)
		}
		return acc
	}
	return x
}
