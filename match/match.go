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

// Package match decides, for an arbitrary inbound message context,
// which registered patterns it satisfies.
//
// A Pattern is a prioritized AND/OR combination of conditions: field
// comparisons over dotted paths, delegations to named custom
// matchers, and time windows.  An Engine holds patterns sorted by
// ascending priority and reports every match in that order.
//
// Pure evaluation never fails: malformed regexes, unknown operators,
// and faulty custom matchers all degrade to "did not match", because
// one misconfigured rule must not break message routing.
package match

import (
	"sort"
	"sync"
	"time"
)

// Engine holds an ordered set of patterns and evaluates contexts
// against them.
type Engine struct {
	// Verbose turns on debug logging.
	Verbose bool

	// Location is the time zone in which time-range conditions
	// interpret their reference instant.  Nil means time.Local.
	// Whether wall-clock windows should follow the host or a
	// fixed zone is a deployment decision, so it is explicit
	// here.
	Location *time.Location

	patterns []*Pattern
	matchers *Registry
	fields   FieldAccessor

	// nowFn is replaceable for tests.
	nowFn func() time.Time

	sync.Mutex
}

// NewEngine makes an Engine that consults the given Registry for
// custom conditions.  The registry may be nil if no pattern uses a
// custom condition.
func NewEngine(matchers *Registry) *Engine {
	return &Engine{
		matchers: matchers,
		fields:   DotAccessor{},
	}
}

// SetFieldAccessor replaces the default dotted-path accessor.
func (e *Engine) SetFieldAccessor(fa FieldAccessor) {
	e.Lock()
	e.fields = fa
	e.Unlock()
}

// SetNow replaces the clock.  For tests.
func (e *Engine) SetNow(f func() time.Time) {
	e.nowFn = f
}

func (e *Engine) now() time.Time {
	if e.nowFn != nil {
		return e.nowFn()
	}
	return time.Now()
}

func (e *Engine) location() *time.Location {
	if e.Location != nil {
		return e.Location
	}
	return time.Local
}

// AddPattern registers the pattern and re-sorts the set by ascending
// effective priority.  The sort is stable, so patterns with equal
// priority stay in registration order.
func (e *Engine) AddPattern(p *Pattern) {
	e.Lock()
	e.patterns = append(e.patterns, p)
	sort.SliceStable(e.patterns, func(i, j int) bool {
		return e.patterns[i].EffectivePriority() < e.patterns[j].EffectivePriority()
	})
	e.Unlock()
}

// RemovePattern drops every pattern with the given name.  Consumers
// that want deterministic removal should assign unique names.
func (e *Engine) RemovePattern(name string) {
	e.Lock()
	acc := e.patterns[:0]
	for _, p := range e.patterns {
		if p.Name != name {
			acc = append(acc, p)
		}
	}
	e.patterns = acc
	e.Unlock()
}

// ClearPatterns drops all patterns.
func (e *Engine) ClearPatterns() {
	e.Lock()
	e.patterns = nil
	e.Unlock()
}

// Patterns returns a copy of the current pattern list in priority
// order.
func (e *Engine) Patterns() []*Pattern {
	e.Lock()
	acc := make([]*Pattern, len(e.patterns))
	copy(acc, e.patterns)
	e.Unlock()
	return acc
}

// Match evaluates the context against every enabled pattern and
// returns the matched results.  The results arrive in the engine's
// priority order; no separate re-sort by score happens (or is
// needed).
func (e *Engine) Match(ctx Context) []Result {
	patterns := e.Patterns()

	var acc []Result
	for _, p := range patterns {
		if !p.IsEnabled() {
			continue
		}
		result := e.MatchPattern(p, ctx)
		if result.Matched {
			acc = append(acc, result)
		}
	}

	return acc
}
