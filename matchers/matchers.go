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

// Package matchers provides the stock custom matchers: marketplace
// predicates (price, balance, category, trade status), message
// content tests, and permission checks.
//
// They all follow the same shape: the condition's Config names a
// sub-operator (and friends) and the condition's Value is the
// operand.  Misconfigurations degrade to non-matches, as the engine
// requires.
package matchers

import (
	"github.com/csmkt/marketbot/match"
)

// Standard returns a Registry holding the stock matchers.
func Standard() *match.Registry {
	r := match.NewRegistry()
	r.Register(&Market{})
	r.Register(&Message{})
	r.Register(&Permission{})
	return r
}

// configString reads a string sub-option with a default.
func configString(config map[string]interface{}, key, def string) string {
	if v, have := config[key]; have {
		if s, is := v.(string); is {
			return s
		}
	}
	return def
}

// first returns the first dotted path that resolves in the context.
func first(ctx match.Context, paths ...string) (interface{}, bool) {
	var fa match.DotAccessor
	for _, path := range paths {
		if v, have := fa.GetValue(ctx, path); have {
			return v, true
		}
	}
	return nil, false
}
