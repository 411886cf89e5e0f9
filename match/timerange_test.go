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
	"time"
)

// A Wednesday at 14:30 UTC.
var wednesday = time.Date(2026, time.August, 26, 14, 30, 0, 0, time.UTC)

func utcEngine() *Engine {
	e := NewEngine(nil)
	e.Location = time.UTC
	e.SetNow(func() time.Time { return wednesday })
	return e
}

func TestTimeRangeWindow(t *testing.T) {
	e := utcEngine()

	tests := []struct {
		cond TimeRangeCondition
		want bool
	}{
		{TimeRangeCondition{}, true},
		{TimeRangeCondition{Start: "09:00", End: "18:00"}, true},
		{TimeRangeCondition{Start: "15:00"}, false},
		{TimeRangeCondition{End: "14:00"}, false},
		{TimeRangeCondition{Start: "14:30", End: "14:30"}, true},
		{TimeRangeCondition{Weekdays: []int{3}}, true},
		{TimeRangeCondition{Weekdays: []int{0, 6}}, false},
		{TimeRangeCondition{Weekdays: []int{3}, Start: "15:00"}, false},
		// Unparsable bounds are not applied.
		{TimeRangeCondition{Start: "soon"}, true},
	}

	for i, test := range tests {
		cond := test.cond
		if got := e.evalTimeRange(&cond, Context{}); got != test.want {
			t.Fatalf("%d: wanted %v for %+v", i, test.want, test.cond)
		}
	}
}

func TestTimeRangeContextTimestamp(t *testing.T) {
	e := utcEngine()

	// Sunday at 02:00 UTC, as epoch millis in the context.
	sunday := time.Date(2026, time.August, 30, 2, 0, 0, 0, time.UTC)
	ctx := Context{"timestamp": float64(sunday.UnixMilli())}

	if !e.evalTimeRange(&TimeRangeCondition{Weekdays: []int{0}}, ctx) {
		t.Fatal("the context timestamp should be the reference instant")
	}
	if e.evalTimeRange(&TimeRangeCondition{Start: "03:00"}, ctx) {
		t.Fatal("02:00 is before the 03:00 start")
	}
}

func TestTimeRangeLocation(t *testing.T) {
	e := utcEngine()
	e.Location = time.FixedZone("east8", 8*60*60)

	// 14:30 UTC is 22:30 in the fixed zone.
	if e.evalTimeRange(&TimeRangeCondition{End: "18:00"}, Context{}) {
		t.Fatal("the window should be checked in the engine's zone")
	}
	if !e.evalTimeRange(&TimeRangeCondition{Start: "22:00"}, Context{}) {
		t.Fatal("22:30 should pass a 22:00 start in the engine's zone")
	}
}
