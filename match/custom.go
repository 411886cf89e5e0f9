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
	"log"
	"sync"
)

// Matcher is a pluggable, named predicate evaluator for conditions
// not expressible as plain field comparisons.
type Matcher interface {
	// Name is the key a CustomCondition uses to find this
	// Matcher.
	Name() string

	// Match evaluates the condition against the context.  A
	// returned error means the matcher faulted, which the engine
	// degrades to a non-match.
	Match(c *CustomCondition, ctx Context) (bool, Bindings, error)
}

// MatcherFunc adapts a function to the Matcher interface.
type MatcherFunc struct {
	MatcherName string
	F           func(c *CustomCondition, ctx Context) (bool, Bindings, error)
}

func (m *MatcherFunc) Name() string {
	return m.MatcherName
}

func (m *MatcherFunc) Match(c *CustomCondition, ctx Context) (bool, Bindings, error) {
	return m.F(c, ctx)
}

// Registry is a set of Matchers looked up by name.
//
// Matchers are usually registered once at process start, but the
// Registry is safe for concurrent use anyway.
type Registry struct {
	sync.RWMutex
	matchers map[string]Matcher
}

func NewRegistry() *Registry {
	return &Registry{
		matchers: make(map[string]Matcher, 8),
	}
}

func (r *Registry) Register(m Matcher) {
	r.Lock()
	r.matchers[m.Name()] = m
	r.Unlock()
}

func (r *Registry) Unregister(name string) {
	r.Lock()
	delete(r.matchers, name)
	r.Unlock()
}

func (r *Registry) Lookup(name string) (Matcher, bool) {
	r.RLock()
	m, have := r.matchers[name]
	r.RUnlock()
	return m, have
}

// Names returns the registered matcher names (in no useful order).
func (r *Registry) Names() []string {
	r.RLock()
	acc := make([]string, 0, len(r.matchers))
	for name := range r.matchers {
		acc = append(acc, name)
	}
	r.RUnlock()
	return acc
}

// evalCustom delegates to the named Matcher.
//
// A missing matcher, a matcher error, and a matcher panic all count
// as a non-match.  One bad matcher must never abort evaluation of
// the rest of the pattern.
func (e *Engine) evalCustom(c *CustomCondition, ctx Context) (matched bool, bs Bindings) {
	if e.matchers == nil {
		log.Printf("match: custom matcher %q wanted but no registry given", c.Name)
		return false, nil
	}
	m, have := e.matchers.Lookup(c.Name)
	if !have {
		log.Printf("match: custom matcher %q not found", c.Name)
		return false, nil
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("match: custom matcher %q panic: %v", c.Name, r)
			matched, bs = false, nil
		}
	}()

	matched, bs, err := m.Match(c, ctx)
	if err != nil {
		log.Printf("match: custom matcher %q error: %s", c.Name, err)
		return false, nil
	}
	return matched, bs
}
