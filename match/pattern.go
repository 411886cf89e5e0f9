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

// Bindings is a map from extracted variable names (regex capture
// groups, matcher outputs) to their values.
type Bindings map[string]interface{}

func NewBindings() Bindings {
	return make(Bindings, 8)
}

// Extend adds the property; modifies and returns the Bindings.
func (bs Bindings) Extend(p string, v interface{}) Bindings {
	bs[p] = v
	return bs
}

// Copy makes a shallow copy of the Bindings.
func (bs Bindings) Copy() Bindings {
	acc := make(Bindings, len(bs))
	for k, v := range bs {
		acc[k] = v
	}
	return acc
}

// Logic says how a Pattern combines its conditions.
type Logic string

const (
	And Logic = "AND"
	Or  Logic = "OR"
)

// DefaultPriority is the effective priority of a Pattern that doesn't
// give one.  Lower numbers mean higher precedence.
const DefaultPriority = 999

// Pattern is a named, prioritized boolean combination of conditions
// used to decide whether a message continues a pending session.
type Pattern struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`

	// Conditions are all evaluated on every check.  There is
	// deliberately no short-circuiting: variables extracted by
	// every matched condition are merged into the result even
	// when the boolean outcome is already decided.
	Conditions Conditions `json:"conditions"`

	Logic Logic `json:"logic"`

	// Priority orders concurrently-matching patterns; lower is
	// first.  Zero or negative means DefaultPriority.
	Priority int `json:"priority,omitempty"`

	// Enabled defaults to true when absent.
	Enabled *bool `json:"enabled,omitempty"`
}

// EffectivePriority is the Pattern's priority with the default
// applied.
func (p *Pattern) EffectivePriority() int {
	if p.Priority <= 0 {
		return DefaultPriority
	}
	return p.Priority
}

// IsEnabled reports whether the pattern participates in matching.
func (p *Pattern) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// Result reports the outcome of evaluating one Pattern against a
// Context.
type Result struct {
	Matched bool     `json:"matched"`
	Pattern *Pattern `json:"pattern,omitempty"`

	// Score is the pattern's effective priority.
	Score int `json:"score"`

	MatchedConditions Conditions `json:"matchedConditions,omitempty"`
	FailedConditions  Conditions `json:"failedConditions,omitempty"`

	// Variables holds everything the matched conditions
	// extracted.  Nil when nothing was extracted.
	Variables Bindings `json:"variables,omitempty"`
}

// MatchPattern evaluates a single Pattern against the Context.
//
// A disabled pattern yields an unmatched Result without touching its
// conditions.  On key collision across conditions, the later
// condition's variable wins.
func (e *Engine) MatchPattern(p *Pattern, ctx Context) Result {
	result := Result{
		Pattern: p,
		Score:   p.EffectivePriority(),
	}

	if !p.IsEnabled() {
		return result
	}

	var variables Bindings
	for _, c := range p.Conditions {
		matched, bs := e.evalCondition(c, ctx)
		if matched {
			result.MatchedConditions = append(result.MatchedConditions, c)
			for k, v := range bs {
				if variables == nil {
					variables = NewBindings()
				}
				variables[k] = v
			}
		} else {
			result.FailedConditions = append(result.FailedConditions, c)
		}
	}

	switch p.Logic {
	case And:
		result.Matched = 0 == len(result.FailedConditions)
	case Or:
		result.Matched = 0 < len(result.MatchedConditions)
	}

	result.Variables = variables

	return result
}

// evalCondition dispatches on the concrete Condition type.
func (e *Engine) evalCondition(c Condition, ctx Context) (bool, Bindings) {
	switch v := c.(type) {
	case *FieldCondition:
		return e.evalField(v, ctx)
	case *CustomCondition:
		return e.evalCustom(v, ctx)
	case *TimeRangeCondition:
		return e.evalTimeRange(v, ctx), nil
	}
	return false, nil
}
