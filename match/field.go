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

import "strings"

// Context is the data that an inbound message presents for matching:
// an arbitrary nested map addressable via dotted field paths.
type Context map[string]interface{}

// FieldAccessor resolves a dotted path against a Context.
//
// Absence is a first-class result, not an error: the second return
// value reports whether the path resolved at all.
type FieldAccessor interface {
	GetValue(ctx Context, path string) (interface{}, bool)
}

// DotAccessor is the default FieldAccessor.  It splits the path on
// '.' and walks nested maps segment by segment.
type DotAccessor struct{}

func (DotAccessor) GetValue(ctx Context, path string) (interface{}, bool) {
	var v interface{} = map[string]interface{}(ctx)
	for _, segment := range strings.Split(path, ".") {
		m, is := asMap(v)
		if !is {
			return nil, false
		}
		x, have := m[segment]
		if !have {
			return nil, false
		}
		v = x
	}
	return v, true
}

// asMap accepts the map types that show up in practice: generic JSON
// maps and nested Contexts.
func asMap(x interface{}) (map[string]interface{}, bool) {
	switch m := x.(type) {
	case map[string]interface{}:
		return m, true
	case Context:
		return map[string]interface{}(m), true
	}
	return nil, false
}
