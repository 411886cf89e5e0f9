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
)

// Condition types as they appear on the wire.
const (
	FieldConditionType     = "field"
	CustomConditionType    = "custom"
	TimeRangeConditionType = "timeRange"
)

// Condition is one atomic predicate within a Pattern.
//
// The concrete types are FieldCondition, CustomCondition, and
// TimeRangeCondition.  The evaluator switches exhaustively on the
// concrete type, so a new kind of Condition cannot be silently
// ignored.
type Condition interface {
	// ConditionType returns the wire tag for this condition.
	ConditionType() string
}

// FieldCondition compares the value at a dotted field path to an
// expected value under an Operator.
type FieldCondition struct {
	// Field is the dotted path (say "event.user.id") into the
	// Context.
	Field string `json:"field"`

	// Value is the expected value.  Its required shape depends on
	// the Operator: In and NotIn want an array; Exists and
	// NotExists ignore it.
	Value interface{} `json:"value,omitempty"`

	// Operator defaults to Equals.
	Operator Operator `json:"operator,omitempty"`
}

func (c *FieldCondition) ConditionType() string {
	return FieldConditionType
}

// CustomCondition delegates to a named Matcher from a Registry.
type CustomCondition struct {
	// Name is the registered name of the Matcher.
	Name string `json:"name"`

	// Value is given to the Matcher uninterpreted.
	Value interface{} `json:"value,omitempty"`

	// Config carries matcher-specific sub-options (typically an
	// "operator" and friends).  See the matchers package for the
	// recognized sets.
	Config map[string]interface{} `json:"config,omitempty"`
}

func (c *CustomCondition) ConditionType() string {
	return CustomConditionType
}

// TimeRangeCondition matches when the reference instant falls within
// the given window.
//
// All constraints are optional.  The reference instant is the
// Context's "timestamp" (epoch milliseconds) when present and the
// current time otherwise.
type TimeRangeCondition struct {
	// Start and End are "HH:mm" bounds on the minute of the day.
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`

	// Weekdays restricts matching to the given days (0 = Sunday
	// through 6 = Saturday).
	Weekdays []int `json:"weekdays,omitempty"`
}

func (c *TimeRangeCondition) ConditionType() string {
	return TimeRangeConditionType
}

// Conditions is an ordered sequence of Conditions that knows how to
// round-trip the tagged-union wire form.
type Conditions []Condition

// conditionEnvelope is the wire form of any Condition.
//
// A timeRange condition nests its window under "value", which is how
// the format always spelled it.
type conditionEnvelope struct {
	Type     string                 `json:"type"`
	Field    string                 `json:"field,omitempty"`
	Name     string                 `json:"name,omitempty"`
	Value    interface{}            `json:"value,omitempty"`
	Operator Operator               `json:"operator,omitempty"`
	Config   map[string]interface{} `json:"config,omitempty"`
}

type timeRangeValue struct {
	Start    string `json:"start,omitempty"`
	End      string `json:"end,omitempty"`
	Weekdays []int  `json:"weekdays,omitempty"`
}

func (cs Conditions) MarshalJSON() ([]byte, error) {
	envs := make([]conditionEnvelope, 0, len(cs))
	for _, c := range cs {
		switch v := c.(type) {
		case *FieldCondition:
			envs = append(envs, conditionEnvelope{
				Type:     FieldConditionType,
				Field:    v.Field,
				Value:    v.Value,
				Operator: v.Operator,
			})
		case *CustomCondition:
			envs = append(envs, conditionEnvelope{
				Type:   CustomConditionType,
				Name:   v.Name,
				Value:  v.Value,
				Config: v.Config,
			})
		case *TimeRangeCondition:
			envs = append(envs, conditionEnvelope{
				Type: TimeRangeConditionType,
				Value: timeRangeValue{
					Start:    v.Start,
					End:      v.End,
					Weekdays: v.Weekdays,
				},
			})
		default:
			return nil, fmt.Errorf("unknown condition type %T", c)
		}
	}
	return json.Marshal(envs)
}

func (cs *Conditions) UnmarshalJSON(bs []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(bs, &raws); err != nil {
		return err
	}
	acc := make(Conditions, 0, len(raws))
	for _, raw := range raws {
		c, err := UnmarshalCondition(raw)
		if err != nil {
			return err
		}
		acc = append(acc, c)
	}
	*cs = acc
	return nil
}

// UnmarshalCondition parses one Condition from its wire form.
func UnmarshalCondition(bs []byte) (Condition, error) {
	var env struct {
		Type     string                 `json:"type"`
		Field    string                 `json:"field"`
		Name     string                 `json:"name"`
		Value    json.RawMessage        `json:"value"`
		Operator Operator               `json:"operator"`
		Config   map[string]interface{} `json:"config"`
	}
	if err := json.Unmarshal(bs, &env); err != nil {
		return nil, err
	}
	switch env.Type {
	case FieldConditionType:
		c := &FieldCondition{
			Field:    env.Field,
			Operator: env.Operator,
		}
		if err := unmarshalValue(env.Value, &c.Value); err != nil {
			return nil, err
		}
		return c, nil
	case CustomConditionType:
		c := &CustomCondition{
			Name:   env.Name,
			Config: env.Config,
		}
		if err := unmarshalValue(env.Value, &c.Value); err != nil {
			return nil, err
		}
		return c, nil
	case TimeRangeConditionType:
		var v timeRangeValue
		if env.Value != nil {
			if err := json.Unmarshal(env.Value, &v); err != nil {
				return nil, err
			}
		}
		return &TimeRangeCondition{
			Start:    v.Start,
			End:      v.End,
			Weekdays: v.Weekdays,
		}, nil
	}
	return nil, fmt.Errorf("unknown condition type %q", env.Type)
}

func unmarshalValue(raw json.RawMessage, target *interface{}) error {
	if raw == nil {
		return nil
	}
	return json.Unmarshal(raw, target)
}
