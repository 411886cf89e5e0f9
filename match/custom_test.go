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
	"errors"
	"testing"
)

func TestCustomMatcherDelegation(t *testing.T) {
	r := NewRegistry()
	r.Register(&MatcherFunc{
		MatcherName: "price",
		F: func(c *CustomCondition, ctx Context) (bool, Bindings, error) {
			threshold, _ := toFloat(c.Value)
			price, ok := toFloat(ctx["price"])
			if !ok {
				return false, nil, nil
			}
			return price >= threshold, nil, nil
		},
	})

	e := NewEngine(r)
	p := &Pattern{
		Conditions: Conditions{
			&CustomCondition{
				Name:   "price",
				Value:  1000,
				Config: map[string]interface{}{"operator": "gte"},
			},
		},
		Logic: And,
	}

	if r := e.MatchPattern(p, Context{"price": 1500}); !r.Matched {
		t.Fatal("1500 >= 1000 should match")
	}
	if r := e.MatchPattern(p, Context{"price": 999}); r.Matched {
		t.Fatal("999 >= 1000 should not match")
	}
}

func TestCustomMatcherMissing(t *testing.T) {
	e := NewEngine(NewRegistry())
	r := e.MatchPattern(&Pattern{
		Conditions: Conditions{
			&CustomCondition{Name: "no-such-matcher"},
		},
		Logic: And,
	}, Context{})
	if r.Matched {
		t.Fatal("an unregistered matcher should never match")
	}
}

func TestCustomMatcherFaultIsolation(t *testing.T) {
	r := NewRegistry()
	r.Register(&MatcherFunc{
		MatcherName: "angry",
		F: func(c *CustomCondition, ctx Context) (bool, Bindings, error) {
			panic("boom")
		},
	})
	r.Register(&MatcherFunc{
		MatcherName: "broken",
		F: func(c *CustomCondition, ctx Context) (bool, Bindings, error) {
			return true, nil, errors.New("nope")
		},
	})

	e := NewEngine(r)
	result := e.MatchPattern(&Pattern{
		Conditions: Conditions{
			&CustomCondition{Name: "angry"},
			&CustomCondition{Name: "broken"},
			&FieldCondition{Field: "ok", Operator: Exists},
		},
		Logic: Or,
	}, Context{"ok": true})

	// The faulty matchers degrade to non-matches and the healthy
	// condition still decides the pattern.
	if !result.Matched {
		t.Fatal("faults in custom matchers must not abort the pattern")
	}
	if len(result.FailedConditions) != 2 {
		t.Fatalf("wanted 2 failed conditions, got %d", len(result.FailedConditions))
	}
}

func TestRegistryUnregister(t *testing.T) {
	r := NewRegistry()
	r.Register(&MatcherFunc{
		MatcherName: "temp",
		F: func(c *CustomCondition, ctx Context) (bool, Bindings, error) {
			return true, nil, nil
		},
	})
	if _, have := r.Lookup("temp"); !have {
		t.Fatal("wanted the matcher registered")
	}
	r.Unregister("temp")
	if _, have := r.Lookup("temp"); have {
		t.Fatal("wanted the matcher gone")
	}
}
