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

// Package timers schedules future and recurring work for the bot: a
// single time.Timer implements the whole pending set, which is kept
// in ascending trigger order.  A Scheduler is meant for a few hundred
// pending tasks, not many thousands.  Task work runs in its own
// goroutine, so it's okay for that work to block.
package timers

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

var (
	TooMany        = errors.New("too many tasks")
	IdExists       = errors.New("id exists")
	NotRunning     = errors.New("not running")
	AlreadyRunning = errors.New("already running")
)

const (
	notRunning = int64(iota)
	running
)

// Task is some work to perform in the future.
type Task struct {
	// Id must be unique across the tasks pending in one
	// Scheduler.
	Id string `json:"id"`

	// F is the work.  The task itself is passed in so general
	// work functions can see their own Id and At.
	F func(context.Context, *Task) `json:"-"`

	// At is when to run F.
	At time.Time `json:"at"`

	// Executed is written when F actually runs.
	Executed time.Time `json:"executed,omitempty"`
}

// Scheduler manages a set of pending Tasks.  Run must be executing
// before Schedule is called.
type Scheduler struct {
	Max   int  `json:"max"`
	Debug bool `json:"-"`

	sync.Mutex
	head    chan *Task
	pending []*Task
	state   int64
	ready   chan bool
}

func NewScheduler(max int) *Scheduler {
	initial := max / 4
	if initial < 8 {
		initial = 8
	}
	return &Scheduler{
		Max:     max,
		head:    make(chan *Task, 32),
		pending: make([]*Task, 0, initial),
		ready:   make(chan bool, 1),
	}
}

// Run drives the Scheduler in the current goroutine until the
// context is canceled.
func (ts *Scheduler) Run(ctx context.Context) error {
	if ts.IsRunning() {
		return AlreadyRunning
	}

	// timer fires for the soonest pending task.  It is replaced
	// whenever a new task becomes the next in line.
	var timer *time.Timer

	atomic.StoreInt64(&ts.state, running)
	ts.ready <- true
LOOP:
	for {
		select {
		case <-ctx.Done():
			break LOOP
		case t := <-ts.head:
			ts.logf("timers: %s now first in line", t.Id)
			if timer != nil {
				timer.Stop()
			}
			d := time.Until(t.At)
			ts.logf("timers: %s fires in %s", t.Id, d)
			timer = time.AfterFunc(d, func() {
				ts.logf("timers: %s firing", t.Id)
				ts.Cancel(t.Id)
				t.Executed = time.Now()
				go t.F(ctx, t)
			})
		}
	}

	if timer != nil {
		timer.Stop()
	}
	<-ts.ready
	atomic.StoreInt64(&ts.state, notRunning)

	return nil
}

func (ts *Scheduler) IsRunning() bool {
	return atomic.LoadInt64(&ts.state) == running
}

// Wait blocks until Run is ready (or the timeout passes).
func (ts *Scheduler) Wait(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	select {
	case <-timer.C:
		return false
	case ready := <-ts.ready:
		ts.ready <- ready
		return true
	}
}

// Schedule adds the task, keeping the pending set in trigger order.
func (ts *Scheduler) Schedule(t *Task) error {
	if !ts.IsRunning() {
		return NotRunning
	}

	ts.Lock()
	defer ts.Unlock()

	if len(ts.pending) == ts.Max {
		return TooMany
	}
	for _, x := range ts.pending {
		if x.Id == t.Id {
			return IdExists
		}
	}

	i := sort.Search(len(ts.pending), func(i int) bool {
		return ts.pending[i].At.After(t.At)
	})
	ts.pending = append(ts.pending, nil)
	copy(ts.pending[i+1:], ts.pending[i:])
	ts.pending[i] = t
	ts.logf("timers: scheduled %s at %d of %d", t.Id, i, len(ts.pending))

	if i == 0 {
		ts.reset()
	}

	return nil
}

// Cancel removes a pending task.  Canceling an unknown id is not an
// error.
func (ts *Scheduler) Cancel(id string) error {
	if !ts.IsRunning() {
		return NotRunning
	}

	ts.Lock()
	defer ts.Unlock()

	for i, t := range ts.pending {
		if t.Id != id {
			continue
		}
		ts.logf("timers: canceled %s at %d", id, i)
		ts.pending = append(ts.pending[:i], ts.pending[i+1:]...)
		if i == 0 {
			ts.reset()
		}
		break
	}

	return nil
}

// Pending reports the ids of the pending tasks in trigger order.
func (ts *Scheduler) Pending() []string {
	ts.Lock()
	defer ts.Unlock()
	acc := make([]string, len(ts.pending))
	for i, t := range ts.pending {
		acc[i] = t.Id
	}
	return acc
}

// reset tells the Run loop that the first pending task changed.
// Caller holds the lock.
func (ts *Scheduler) reset() {
	if 0 < len(ts.pending) {
		ts.head <- ts.pending[0]
	}
}

func (ts *Scheduler) logf(format string, args ...interface{}) {
	if ts.Debug {
		log.Printf(format, args...)
	}
}
