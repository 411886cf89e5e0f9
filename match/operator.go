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
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// Operator says how a FieldCondition compares the field value to the
// expected value.
type Operator string

const (
	Equals     Operator = "equals"
	NotEquals  Operator = "notEquals"
	Contains   Operator = "contains"
	StartsWith Operator = "startsWith"
	EndsWith   Operator = "endsWith"
	Regex      Operator = "regex"
	In         Operator = "in"
	NotIn      Operator = "notIn"
	GT         Operator = "gt"
	GTE        Operator = "gte"
	LT         Operator = "lt"
	LTE        Operator = "lte"
	Exists     Operator = "exists"
	NotExists  Operator = "notExists"
)

// evalField evaluates a FieldCondition against a Context.
//
// A missing field matches only under NotExists.  An unknown operator
// never matches.
func (e *Engine) evalField(c *FieldCondition, ctx Context) (bool, Bindings) {
	value, have := e.fields.GetValue(ctx, c.Field)

	op := c.Operator
	if op == "" {
		op = Equals
	}

	if !have {
		return op == NotExists, nil
	}

	switch op {
	case Exists:
		return true, nil
	case NotExists:
		return false, nil
	case Equals:
		return equal(value, c.Value), nil
	case NotEquals:
		return !equal(value, c.Value), nil
	case Contains:
		return strings.Contains(stringify(value), stringify(c.Value)), nil
	case StartsWith:
		return strings.HasPrefix(stringify(value), stringify(c.Value)), nil
	case EndsWith:
		return strings.HasSuffix(stringify(value), stringify(c.Value)), nil
	case Regex:
		return evalRegex(stringify(c.Value), stringify(value))
	case In:
		return member(c.Value, value), nil
	case NotIn:
		in := member(c.Value, value)
		if _, isArray := c.Value.([]interface{}); !isArray {
			// Mirrors In: a non-array expectation matches
			// nothing under either membership operator.
			return false, nil
		}
		return !in, nil
	case GT, GTE, LT, LTE:
		return compare(op, value, c.Value), nil
	}

	return false, nil
}

// evalRegex compiles the pattern case-insensitively and, on a match,
// binds capture groups as group1, group2, ... (empty groups omitted).
// A malformed pattern is a non-match, never an error.
func evalRegex(pattern, s string) (bool, Bindings) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return false, nil
	}
	groups := re.FindStringSubmatch(s)
	if groups == nil {
		return false, nil
	}
	var bs Bindings
	for i, g := range groups[1:] {
		if g == "" {
			continue
		}
		if bs == nil {
			bs = NewBindings()
		}
		bs["group"+strconv.Itoa(i+1)] = g
	}
	return true, bs
}

// equal compares raw typed values.  Numerics are normalized first, so
// an int 5 equals a float64 5, but there is no cross-type coercion:
// "5" does not equal 5.
func equal(x, y interface{}) bool {
	return reflect.DeepEqual(fudge(x), fudge(y))
}

// member reports whether v occurs in the array xs.  A non-array xs
// has no members.
func member(xs interface{}, v interface{}) bool {
	array, is := xs.([]interface{})
	if !is {
		return false
	}
	for _, x := range array {
		if equal(x, v) {
			return true
		}
	}
	return false
}

// compare numeric-coerces both operands.  Anything that won't coerce
// (including a non-numeric string) never matches.
func compare(op Operator, x, y interface{}) bool {
	a, ok := toFloat(x)
	if !ok {
		return false
	}
	b, ok := toFloat(y)
	if !ok {
		return false
	}
	switch op {
	case GT:
		return a > b
	case GTE:
		return a >= b
	case LT:
		return a < b
	case LTE:
		return a <= b
	}
	return false
}

// Number coerces numbers, numeric strings, and bools to float64 the
// way the comparison operators do.  For custom matcher authors.
func Number(x interface{}) (float64, bool) {
	return toFloat(x)
}

// Stringify renders a value the way the substring operators do.  For
// custom matcher authors.
func Stringify(x interface{}) string {
	return stringify(x)
}

// Member reports whether v occurs in the array xs, by the same
// normalized equality the In operator uses.  A non-array xs has no
// members.
func Member(xs interface{}, v interface{}) bool {
	return member(xs, v)
}

// Equal compares two values with numeric normalization but no
// cross-type coercion, as the Equals operator does.
func Equal(x, y interface{}) bool {
	return equal(x, y)
}

// fudge is a hack to cast numbers to float64s.
func fudge(x interface{}) interface{} {
	switch vv := x.(type) {
	case float64:
		return vv
	case float32:
		return float64(vv)
	case int64:
		return float64(vv)
	case int32:
		return float64(vv)
	case int:
		return float64(vv)
	default:
		return x
	}
}

// toFloat coerces numbers, numeric strings, and bools.
func toFloat(x interface{}) (float64, bool) {
	switch vv := x.(type) {
	case float64:
		return vv, true
	case float32:
		return float64(vv), true
	case int:
		return float64(vv), true
	case int32:
		return float64(vv), true
	case int64:
		return float64(vv), true
	case uint:
		return float64(vv), true
	case string:
		f, err := strconv.ParseFloat(vv, 64)
		return f, err == nil
	case bool:
		if vv {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// stringify renders a value for the substring operators.
func stringify(x interface{}) string {
	switch vv := x.(type) {
	case string:
		return vv
	case float64:
		return strconv.FormatFloat(vv, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", x)
	}
}
