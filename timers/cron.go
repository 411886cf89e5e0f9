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

package timers

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/gorhill/cronexpr"
)

// Recur schedules f at every time the crontab expression names,
// evaluated in the given location (nil means time.Local).  The id
// names the recurring task in the pending set.  The returned stop
// function cancels future occurrences.
func (ts *Scheduler) Recur(id, spec string, loc *time.Location, f func(context.Context, time.Time)) (stop func(), err error) {
	expr, err := cronexpr.Parse(spec)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.Local
	}

	var stopped int64

	var arm func(from time.Time) error
	arm = func(from time.Time) error {
		next := expr.Next(from.In(loc))
		if next.IsZero() {
			// The expression has no further occurrences.
			return nil
		}
		return ts.Schedule(&Task{
			Id: id,
			At: next,
			F: func(ctx context.Context, t *Task) {
				if atomic.LoadInt64(&stopped) != 0 {
					return
				}
				f(ctx, t.At)
				if atomic.LoadInt64(&stopped) != 0 {
					return
				}
				if err := arm(t.At); err != nil {
					log.Printf("timers: rescheduling %s: %s", id, err)
				}
			},
		})
	}

	if err = arm(time.Now()); err != nil {
		return nil, err
	}

	return func() {
		atomic.StoreInt64(&stopped, 1)
		ts.Cancel(id)
	}, nil
}
