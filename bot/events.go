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

package bot

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"
)

// Event is what Bus handlers receive.
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Source    string      `json:"source,omitempty"`
}

type EventHandler func(context.Context, *Event)

type subscription struct {
	f    EventHandler
	once bool
}

// Bus is a simple in-process publish/subscribe hub keyed by event
// type.  A handler that panics is logged and does not take down the
// publisher.
type Bus struct {
	sync.Mutex
	handlers map[string][]*subscription
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string][]*subscription),
	}
}

// Subscribe registers a handler.  The returned function cancels the
// subscription.
func (b *Bus) Subscribe(eventType string, f EventHandler) (cancel func()) {
	return b.subscribe(eventType, f, false)
}

// Once registers a handler that fires at most one time.
func (b *Bus) Once(eventType string, f EventHandler) (cancel func()) {
	return b.subscribe(eventType, f, true)
}

func (b *Bus) subscribe(eventType string, f EventHandler, once bool) func() {
	sub := &subscription{f: f, once: once}
	b.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], sub)
	b.Unlock()

	return func() {
		b.remove(eventType, sub)
	}
}

func (b *Bus) remove(eventType string, sub *subscription) {
	b.Lock()
	defer b.Unlock()
	subs := b.handlers[eventType]
	for i, s := range subs {
		if s == sub {
			b.handlers[eventType] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(b.handlers[eventType]) == 0 {
		delete(b.handlers, eventType)
	}
}

// Publish delivers data to every handler of the event type, in
// subscription order, synchronously.  Returns the number of handlers
// that ran.
func (b *Bus) Publish(ctx context.Context, eventType string, data interface{}) int {
	ev := &Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
		Source:    "bus",
	}

	b.Lock()
	subs := append([]*subscription(nil), b.handlers[eventType]...)
	b.Unlock()

	for _, sub := range subs {
		if sub.once {
			b.remove(eventType, sub)
		}
		b.deliver(ctx, sub, ev)
	}

	return len(subs)
}

func (b *Bus) deliver(ctx context.Context, sub *subscription, ev *Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("bot: event handler for %q panicked: %v", ev.Type, r)
		}
	}()
	sub.f(ctx, ev)
}

// ListenerCount reports how many handlers an event type has.
func (b *Bus) ListenerCount(eventType string) int {
	b.Lock()
	defer b.Unlock()
	return len(b.handlers[eventType])
}

// EventTypes reports the event types with at least one handler.
func (b *Bus) EventTypes() []string {
	b.Lock()
	defer b.Unlock()
	acc := make([]string, 0, len(b.handlers))
	for t := range b.handlers {
		acc = append(acc, t)
	}
	sort.Strings(acc)
	return acc
}
