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
	"testing"
)

func TestLoadPatterns(t *testing.T) {
	src := `
- name: vip
  description: High-value traders
  logic: AND
  priority: 5
  conditions:
    - type: field
      field: user.level
      value: 10
      operator: gte
    - type: custom
      name: market
      value: 1000
      config:
        type: itemPrice
        operator: gte
- name: quiet-hours
  conditions:
    - type: timeRange
      value:
        start: "22:00"
        end: "06:00"
`
	patterns, err := LoadPatterns([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if len(patterns) != 2 {
		t.Fatalf("got %d patterns", len(patterns))
	}

	vip := patterns[0]
	if vip.EffectivePriority() != 5 || len(vip.Conditions) != 2 {
		t.Fatalf("got %#v", vip)
	}
	if _, is := vip.Conditions[0].(*FieldCondition); !is {
		t.Fatalf("condition 0: %T", vip.Conditions[0])
	}
	custom, is := vip.Conditions[1].(*CustomCondition)
	if !is || custom.Name != "market" {
		t.Fatalf("condition 1: %#v", vip.Conditions[1])
	}

	quiet := patterns[1]
	if quiet.EffectivePriority() != DefaultPriority {
		t.Fatalf("priority %d", quiet.EffectivePriority())
	}
	tr, is := quiet.Conditions[0].(*TimeRangeCondition)
	if !is || tr.Start != "22:00" || tr.End != "06:00" {
		t.Fatalf("condition: %#v", quiet.Conditions[0])
	}
}

func TestLoadPatternsRejects(t *testing.T) {
	if _, err := LoadPatterns([]byte(`- conditions: [{type: field, field: x}]`)); err == nil {
		t.Fatal("wanted an error for a nameless pattern")
	}
	if _, err := LoadPatterns([]byte(`- name: empty`)); err == nil {
		t.Fatal("wanted an error for no conditions")
	}
	if _, err := LoadPatterns([]byte(`- name: odd
  conditions:
    - type: nope
`)); err == nil {
		t.Fatal("wanted an error for an unknown condition type")
	}
}
