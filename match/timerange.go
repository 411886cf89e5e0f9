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
	"strconv"
	"strings"
	"time"
)

// evalTimeRange checks the condition's window against the reference
// instant: the Context's "timestamp" (epoch milliseconds) when
// present, otherwise now.  The instant is interpreted in the engine's
// Location.
func (e *Engine) evalTimeRange(c *TimeRangeCondition, ctx Context) bool {
	t := e.refTime(ctx).In(e.location())

	if 0 < len(c.Weekdays) {
		day := int(t.Weekday())
		found := false
		for _, d := range c.Weekdays {
			if d == day {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	minute := t.Hour()*60 + t.Minute()

	// A bound that won't parse is a bound that isn't applied.
	if c.Start != "" {
		if start, ok := minuteOfDay(c.Start); ok && minute < start {
			return false
		}
	}
	if c.End != "" {
		if end, ok := minuteOfDay(c.End); ok && minute > end {
			return false
		}
	}

	return true
}

// refTime picks the reference instant for time-based conditions.
func (e *Engine) refTime(ctx Context) time.Time {
	if v, have := ctx["timestamp"]; have {
		if ms, ok := toFloat(v); ok {
			return time.UnixMilli(int64(ms))
		}
	}
	return e.now()
}

// minuteOfDay parses "HH:mm" into minutes after midnight.
func minuteOfDay(s string) (int, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	return h*60 + m, true
}
