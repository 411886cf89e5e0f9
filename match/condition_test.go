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
	"testing"
)

func TestConditionsWireForm(t *testing.T) {
	js := `[
	  {"type":"field","field":"event.user.id","value":"u1","operator":"equals"},
	  {"type":"custom","name":"price","value":1000,"config":{"operator":"gte"}},
	  {"type":"timeRange","value":{"start":"09:00","end":"18:00","weekdays":[1,2,3,4,5]}}
	]`

	var cs Conditions
	if err := json.Unmarshal([]byte(js), &cs); err != nil {
		t.Fatal(err)
	}
	if len(cs) != 3 {
		t.Fatalf("wanted 3 conditions, got %d", len(cs))
	}

	f, is := cs[0].(*FieldCondition)
	if !is || f.Field != "event.user.id" || f.Operator != Equals {
		t.Fatalf("bad field condition: %#v", cs[0])
	}
	c, is := cs[1].(*CustomCondition)
	if !is || c.Name != "price" || c.Config["operator"] != "gte" {
		t.Fatalf("bad custom condition: %#v", cs[1])
	}
	tr, is := cs[2].(*TimeRangeCondition)
	if !is || tr.Start != "09:00" || len(tr.Weekdays) != 5 {
		t.Fatalf("bad timeRange condition: %#v", cs[2])
	}

	// Round-trip.
	out, err := json.Marshal(cs)
	if err != nil {
		t.Fatal(err)
	}
	var back Conditions
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatal(err)
	}
	if len(back) != 3 {
		t.Fatalf("round trip lost conditions: %d", len(back))
	}
	if _, is := back[2].(*TimeRangeCondition); !is {
		t.Fatalf("round trip changed the condition kind: %#v", back[2])
	}
}

func TestConditionUnknownType(t *testing.T) {
	if _, err := UnmarshalCondition([]byte(`{"type":"telepathy"}`)); err == nil {
		t.Fatal("wanted an error for an unknown condition type")
	}
}

func TestPatternWireForm(t *testing.T) {
	js := `{
	  "name": "choose-item",
	  "conditions": [
	    {"type":"field","field":"userId","value":"u1","operator":"equals"}
	  ],
	  "logic": "AND",
	  "priority": 1,
	  "enabled": true
	}`

	var p Pattern
	if err := json.Unmarshal([]byte(js), &p); err != nil {
		t.Fatal(err)
	}
	if p.Name != "choose-item" || p.Logic != And || p.EffectivePriority() != 1 {
		t.Fatalf("bad pattern: %#v", p)
	}
	if !p.IsEnabled() {
		t.Fatal("wanted enabled")
	}

	var bare Pattern
	if err := json.Unmarshal([]byte(`{"conditions":[],"logic":"OR"}`), &bare); err != nil {
		t.Fatal(err)
	}
	if bare.EffectivePriority() != DefaultPriority {
		t.Fatal("an absent priority should default to 999")
	}
	if !bare.IsEnabled() {
		t.Fatal("an absent enabled flag should mean enabled")
	}
}
