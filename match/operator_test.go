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
	"fmt"
	"testing"

	. "github.com/csmkt/marketbot/util/testutil"
)

type fieldTest struct {
	Field    string
	Operator Operator
	Value    interface{}
	Ctx      Context
	Want     bool
}

func (ft fieldTest) name(i int) string {
	return fmt.Sprintf("%03d %s %s", i, ft.Operator, JS(ft.Value))
}

func TestFieldOperators(t *testing.T) {
	nested := Context{
		"user": map[string]interface{}{
			"id":   "u1",
			"tier": 3,
		},
		"content": "price is 1500 yuan",
		"count":   float64(5),
	}

	tests := []fieldTest{
		{"user.id", Equals, "u1", nested, true},
		{"user.id", Equals, "u2", nested, false},
		// Numeric equality is normalized across numeric types...
		{"count", Equals, 5, nested, true},
		{"user.tier", Equals, float64(3), nested, true},
		// ...but never coerced across kinds: "5" != 5.
		{"count", Equals, "5", nested, false},
		{"user.id", NotEquals, "u2", nested, true},
		{"user.id", NotEquals, "u1", nested, false},
		{"content", Contains, "1500", nested, true},
		{"content", Contains, "dollars", nested, false},
		{"count", Contains, "5", nested, true},
		{"content", StartsWith, "price", nested, true},
		{"content", StartsWith, "yuan", nested, false},
		{"content", EndsWith, "yuan", nested, true},
		{"content", Regex, "PRICE IS (\\d+)", nested, true},
		{"content", Regex, "([0-9]+", nested, false},
		{"user.id", In, []interface{}{"u1", "u2"}, nested, true},
		{"user.id", In, []interface{}{"u3"}, nested, false},
		{"user.id", In, "u1", nested, false},
		{"user.id", NotIn, []interface{}{"u3"}, nested, true},
		{"user.id", NotIn, []interface{}{"u1"}, nested, false},
		{"user.id", NotIn, "u3", nested, false},
		{"user.tier", GT, 2, nested, true},
		{"user.tier", GT, 3, nested, false},
		{"user.tier", GTE, 3, nested, true},
		{"user.tier", LT, 4, nested, true},
		{"user.tier", LTE, "3", nested, true},
		{"user.id", GT, 1, nested, false},
		{"user.id", Exists, nil, nested, true},
		{"user.id", NotExists, nil, nested, false},
		{"nope", Exists, nil, nested, false},
		{"nope", NotExists, nil, nested, true},
		// A missing field fails every other operator.
		{"nope", Equals, nil, nested, false},
		{"nope", Regex, ".*", nested, false},
		// Unknown operator never matches.
		{"user.id", Operator("≈"), "u1", nested, false},
	}

	e := NewEngine(nil)
	for i, ft := range tests {
		t.Run(ft.name(i), func(t *testing.T) {
			got, _ := e.evalField(&FieldCondition{
				Field:    ft.Field,
				Value:    ft.Value,
				Operator: ft.Operator,
			}, ft.Ctx)
			if got != ft.Want {
				t.Fatalf("wanted %v, got %v", ft.Want, got)
			}
		})
	}
}

func TestDefaultOperatorIsEquals(t *testing.T) {
	e := NewEngine(nil)
	got, _ := e.evalField(&FieldCondition{Field: "x", Value: "y"}, Context{"x": "y"})
	if !got {
		t.Fatal("an absent operator should mean equals")
	}
}

func TestRegexEmptyGroupOmitted(t *testing.T) {
	matched, bs := evalRegex("(a)(b)?", "a")
	if !matched {
		t.Fatal("wanted a match")
	}
	if bs["group1"] != "a" {
		t.Fatalf("wanted group1=a, got %#v", bs["group1"])
	}
	if _, have := bs["group2"]; have {
		t.Fatal("an empty group should be absent, not empty")
	}
}

func TestDotAccessor(t *testing.T) {
	ctx := Context{
		"a": map[string]interface{}{
			"b": map[string]interface{}{
				"c": 42,
			},
		},
		"s": "leaf",
	}
	a := DotAccessor{}

	if v, have := a.GetValue(ctx, "a.b.c"); !have || v != 42 {
		t.Fatalf("wanted 42, got %#v (%v)", v, have)
	}
	if _, have := a.GetValue(ctx, "a.b.missing"); have {
		t.Fatal("missing key should be absent")
	}
	// Walking through a leaf is absence, not an error.
	if _, have := a.GetValue(ctx, "s.deeper"); have {
		t.Fatal("a non-map should end the walk")
	}
	if v, have := a.GetValue(ctx, "s"); !have || v != "leaf" {
		t.Fatalf("wanted leaf, got %#v", v)
	}
}
