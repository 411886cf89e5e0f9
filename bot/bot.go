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

// Package bot runs the chat loop: inbound messages from a Couplings
// are dispatched to commands and correlated against pending
// sessions.
package bot

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/csmkt/marketbot/match"
	"github.com/csmkt/marketbot/session"
)

// Correlation is published on the Bus when an inbound message
// matches a pending session.
type Correlation struct {
	Record  *session.Record
	Message *Message

	// Reply sends text back to the message's channel.
	Reply func(string)
}

// PatternMatch is published on the Bus (as "pattern:<name>") when a
// standing pattern matches an inbound message.
type PatternMatch struct {
	Result  match.Result
	Message *Message

	// Reply sends text back to the message's channel.
	Reply func(string)
}

// CommandFunc handles one invocation.  The returned string, if not
// empty, is sent as the reply.
type CommandFunc func(ctx context.Context, msg *Message, args string) (string, error)

type Bot struct {
	Verbose bool

	couplings Couplings
	sessions  *session.Service
	bus       *Bus
	engine    *match.Engine

	sync.Mutex
	commands map[string]CommandFunc
}

func New(couplings Couplings, sessions *session.Service) *Bot {
	return &Bot{
		couplings: couplings,
		sessions:  sessions,
		bus:       NewBus(),
		commands:  make(map[string]CommandFunc),
	}
}

func (b *Bot) Bus() *Bus {
	return b.bus
}

func (b *Bot) Sessions() *session.Service {
	return b.sessions
}

// SetEngine installs standing patterns evaluated against every
// inbound message, independent of any pending session.
func (b *Bot) SetEngine(e *match.Engine) {
	b.engine = e
}

// Command registers a command by its leading word.
func (b *Bot) Command(name string, f CommandFunc) {
	b.Lock()
	b.commands[name] = f
	b.Unlock()
}

func (b *Bot) command(name string) (CommandFunc, bool) {
	b.Lock()
	defer b.Unlock()
	f, have := b.commands[name]
	return f, have
}

func (b *Bot) logf(format string, args ...interface{}) {
	if b.Verbose {
		log.Printf(format, args...)
	}
}

// Run drives the bot until the context is canceled or the transport
// ends.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.couplings.Start(ctx); err != nil {
		return err
	}

	in, out, err := b.couplings.IO(ctx)
	if err != nil {
		return err
	}

LOOP:
	for {
		select {
		case <-ctx.Done():
			break LOOP
		case msg, ok := <-in:
			if !ok {
				break LOOP
			}
			b.Handle(ctx, msg, out)
		}
	}

	return b.couplings.Stop(ctx)
}

// Handle processes one inbound message: session correlation first,
// then command dispatch.
func (b *Bot) Handle(ctx context.Context, msg *Message, out chan *Reply) {
	if msg.EventType == "" {
		msg.EventType = "message"
	}
	b.logf("bot: message from %s@%s: %q", msg.UserId, msg.ChannelId, msg.Content)

	reply := func(content string) {
		if content == "" {
			return
		}
		select {
		case <-ctx.Done():
		case out <- &Reply{ChannelId: msg.ChannelId, UserId: msg.UserId, Content: content}:
		}
	}

	b.correlate(ctx, msg, reply)
	b.standing(ctx, msg, reply)
	b.dispatch(ctx, msg, reply)
}

// standing runs the bot's standing patterns and publishes each match
// as a "pattern:<name>" event.
func (b *Bot) standing(ctx context.Context, msg *Message, reply func(string)) {
	if b.engine == nil {
		return
	}
	for _, r := range b.engine.Match(msg.MatchContext()) {
		b.logf("bot: standing pattern %q matched", r.Pattern.Name)
		b.bus.Publish(ctx, "pattern:"+r.Pattern.Name, &PatternMatch{
			Result:  r,
			Message: msg,
			Reply:   reply,
		})
	}
}

// correlate finds the pending sessions this message answers,
// publishes each on the Bus, and removes them.
func (b *Bot) correlate(ctx context.Context, msg *Message, reply func(string)) {
	records, err := b.sessions.FindMatching(ctx, msg.MatchContext())
	if err != nil {
		log.Printf("bot: session correlation: %s", err)
		return
	}

	for _, r := range records {
		b.logf("bot: message correlates with session %s (%s)", r.Id, r.SessionType)
		b.bus.Publish(ctx, r.EventType, &Correlation{
			Record:  r,
			Message: msg,
			Reply:   reply,
		})
		if err := b.sessions.Remove(ctx, r.Id); err != nil {
			log.Printf("bot: removing session %s: %s", r.Id, err)
		}
	}
}

// dispatch runs the command named by the message's first word, if
// one is registered.
func (b *Bot) dispatch(ctx context.Context, msg *Message, reply func(string)) {
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return
	}

	name, args := content, ""
	if i := strings.IndexAny(content, " \t"); 0 < i {
		name, args = content[:i], strings.TrimSpace(content[i+1:])
	}

	f, have := b.command(name)
	if !have {
		return
	}

	result, err := f(ctx, msg, args)
	if err != nil {
		log.Printf("bot: command %q: %s", name, err)
		return
	}
	reply(result)
}
