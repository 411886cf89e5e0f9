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

package matchers

import (
	"math"
	"strings"

	"github.com/csmkt/marketbot/match"
)

// Market evaluates marketplace predicates.  Config "type" picks the
// predicate family:
//
//	itemPrice    threshold on item.price (or price); config
//	             "operator": equals, gt, gte, lt, lte, or range
//	             with config "min"/"max"
//	userBalance  threshold on user.balance (or balance); operator
//	             equals, gt, gte, lt, lte (default gte)
//	itemCategory set test on item.category (or category); operator
//	             equals, in, notIn, contains
//	tradeStatus  set test on trade.status (or status); operator
//	             equals, in, notIn
type Market struct{}

func (m *Market) Name() string {
	return "market"
}

func (m *Market) Match(c *match.CustomCondition, ctx match.Context) (bool, match.Bindings, error) {
	switch configString(c.Config, "type", "") {
	case "itemPrice":
		return m.price(c, ctx, "equals", "item.price", "price")
	case "userBalance":
		return m.price(c, ctx, "gte", "user.balance", "balance")
	case "itemCategory":
		return m.set(c, ctx, true, "item.category", "category")
	case "tradeStatus":
		return m.set(c, ctx, false, "trade.status", "status")
	}
	return false, nil, nil
}

// price is the shared threshold logic for itemPrice and userBalance.
func (m *Market) price(c *match.CustomCondition, ctx match.Context, defOp string, paths ...string) (bool, match.Bindings, error) {
	raw, have := first(ctx, paths...)
	if !have {
		return false, nil, nil
	}
	v, ok := match.Number(raw)
	if !ok {
		return false, nil, nil
	}
	threshold, _ := match.Number(c.Value)

	switch configString(c.Config, "operator", defOp) {
	case "equals":
		return v == threshold, nil, nil
	case "gt":
		return v > threshold, nil, nil
	case "gte":
		return v >= threshold, nil, nil
	case "lt":
		return v < threshold, nil, nil
	case "lte":
		return v <= threshold, nil, nil
	case "range":
		min, haveMin := match.Number(c.Config["min"])
		if !haveMin {
			min = 0
		}
		max, haveMax := match.Number(c.Config["max"])
		if !haveMax {
			max = math.Inf(1)
		}
		return min <= v && v <= max, nil, nil
	}
	return false, nil, nil
}

// set is the shared membership logic for itemCategory and
// tradeStatus.  Contains is only recognized for categories.
func (m *Market) set(c *match.CustomCondition, ctx match.Context, allowContains bool, paths ...string) (bool, match.Bindings, error) {
	v, have := first(ctx, paths...)
	if !have {
		return false, nil, nil
	}

	switch op := configString(c.Config, "operator", "equals"); op {
	case "equals":
		return match.Equal(v, c.Value), nil, nil
	case "in":
		return match.Member(c.Value, v), nil, nil
	case "notIn":
		if _, isArray := c.Value.([]interface{}); !isArray {
			return false, nil, nil
		}
		return !match.Member(c.Value, v), nil, nil
	case "contains":
		if allowContains {
			return strings.Contains(match.Stringify(v), match.Stringify(c.Value)), nil, nil
		}
	}
	return false, nil, nil
}
