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

// Package scripted provides a custom matcher backed by an
// ECMAScript-compatible interpreter, so pattern authors can express
// predicates too awkward for the built-in operators.
package scripted

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/csmkt/marketbot/match"

	"github.com/dop251/goja"
)

var (
	// InterruptedMessage is the string value of Interrupted.
	InterruptedMessage = "RuntimeError: timeout"

	// Interrupted is returned by Match when a script runs past
	// the matcher's Timeout.
	Interrupted = errors.New(InterruptedMessage)

	// DefaultTimeout bounds each script execution.
	DefaultTimeout = 100 * time.Millisecond
)

// Matcher evaluates the ECMAScript source from the condition's config
// "source" property.  The last expression's value, interpreted as a
// Javascript truthy value, decides the match.
//
// The following properties are available from the runtime at _:
//
//    ctx: the match context.
//    value: the condition's value.
//    config: the condition's config map.
//    bind(name, v): contribute a variable to the match result.
//
type Matcher struct {
	// Timeout bounds each script execution.  Zero means
	// DefaultTimeout.
	Timeout time.Duration

	sync.Mutex
	programs map[string]*goja.Program
}

func NewMatcher() *Matcher {
	return &Matcher{
		programs: make(map[string]*goja.Program),
	}
}

func (m *Matcher) Name() string {
	return "script"
}

func wrapSrc(src string) string {
	return fmt.Sprintf("(function() {\n%s\n}());\n", src)
}

// compile caches compiled programs by source.  Pattern sets are small
// and long-lived, so the cache is never evicted.
func (m *Matcher) compile(src string) (*goja.Program, error) {
	m.Lock()
	defer m.Unlock()
	if p, have := m.programs[src]; have {
		return p, nil
	}
	p, err := goja.Compile("", wrapSrc(src), true)
	if err != nil {
		return nil, err
	}
	m.programs[src] = p
	return p, nil
}

func (m *Matcher) Match(c *match.CustomCondition, ctx match.Context) (bool, match.Bindings, error) {
	src, is := c.Config["source"].(string)
	if !is {
		return false, nil, fmt.Errorf("script matcher needs a string config source (got %T)", c.Config["source"])
	}

	p, err := m.compile(src)
	if err != nil {
		return false, nil, err
	}

	o := goja.New()

	var bound match.Bindings
	env := map[string]interface{}{
		"ctx":    map[string]interface{}(ctx),
		"value":  c.Value,
		"config": c.Config,
		"bind": func(name goja.Value, v goja.Value) interface{} {
			if bound == nil {
				bound = match.NewBindings()
			}
			bound[name.String()] = v.Export()
			return nil
		},
	}
	o.Set("_", env)

	timeout := m.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	timer := time.AfterFunc(timeout, func() {
		o.Interrupt(InterruptedMessage)
	})

	v, err := o.RunProgram(p)
	timer.Stop()

	if err != nil {
		if _, is := err.(*goja.InterruptedError); is {
			return false, nil, Interrupted
		}
		return false, nil, err
	}

	return truthy(v.Export()), bound, nil
}

// truthy applies Javascript truthiness to the exported result.
func truthy(x interface{}) bool {
	switch vv := x.(type) {
	case nil:
		return false
	case bool:
		return vv
	case string:
		return vv != ""
	case int64:
		return vv != 0
	case float64:
		return vv != 0
	}
	return true
}
