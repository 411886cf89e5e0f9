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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/csmkt/marketbot/market"
	"github.com/csmkt/marketbot/match"
	"github.com/csmkt/marketbot/matchers"
	"github.com/csmkt/marketbot/session"
	"github.com/csmkt/marketbot/session/storage"
)

func testBot(t *testing.T) *Bot {
	t.Helper()
	sessions := session.NewService(storage.NewMem(), matchers.Standard())
	return New(nil, sessions)
}

func hear(t *testing.T, out chan *Reply) *Reply {
	t.Helper()
	select {
	case r := <-out:
		return r
	case <-time.After(time.Second):
		t.Fatal("no reply")
		return nil
	}
}

func TestMatchContext(t *testing.T) {
	msg := &Message{
		EventType:  "message",
		UserId:     "u1",
		ChannelId:  "c1",
		Content:    "hello",
		Role:       "admin",
		Raw:        map[string]interface{}{"platform": "onebot"},
		ReceivedAt: time.UnixMilli(1234),
	}
	mctx := msg.MatchContext()

	event := mctx["event"].(map[string]interface{})
	user := event["user"].(map[string]interface{})
	if user["id"] != "u1" {
		t.Fatalf("event.user.id %#v", user["id"])
	}
	if mctx["content"] != "hello" || mctx["message"] != "hello" {
		t.Fatalf("content %#v", mctx)
	}
	if mctx["timestamp"] != int64(1234) {
		t.Fatalf("timestamp %#v", mctx["timestamp"])
	}
	if mctx["platform"] != "onebot" {
		t.Fatalf("raw fields not merged: %#v", mctx)
	}
}

func TestCommandDispatch(t *testing.T) {
	b := testBot(t)
	ctx := context.Background()
	out := make(chan *Reply, 4)

	b.Command("ping", func(ctx context.Context, msg *Message, args string) (string, error) {
		if args == "" {
			return "pong", nil
		}
		return "pong " + args, nil
	})

	b.Handle(ctx, &Message{UserId: "u1", ChannelId: "c1", Content: "ping"}, out)
	if r := hear(t, out); r.Content != "pong" {
		t.Fatalf("got %q", r.Content)
	}

	b.Handle(ctx, &Message{UserId: "u1", ChannelId: "c1", Content: "ping  there"}, out)
	if r := hear(t, out); r.Content != "pong there" {
		t.Fatalf("got %q", r.Content)
	}

	// Unregistered words are ignored.
	b.Handle(ctx, &Message{UserId: "u1", ChannelId: "c1", Content: "nope"}, out)
	select {
	case r := <-out:
		t.Fatalf("unexpected reply %q", r.Content)
	default:
	}
}

func TestStandingPatterns(t *testing.T) {
	b := testBot(t)
	ctx := context.Background()
	out := make(chan *Reply, 4)

	e := match.NewEngine(matchers.Standard())
	e.AddPattern(&match.Pattern{
		Name: "price-mention",
		Conditions: match.Conditions{
			&match.FieldCondition{
				Field:    "content",
				Value:    `(\d+) yuan`,
				Operator: match.Regex,
			},
		},
	})
	b.SetEngine(e)

	var heard *PatternMatch
	b.Bus().Subscribe("pattern:price-mention", func(_ context.Context, ev *Event) {
		heard = ev.Data.(*PatternMatch)
	})

	b.Handle(ctx, &Message{UserId: "u1", ChannelId: "c1", Content: "selling for 250 yuan"}, out)
	if heard == nil {
		t.Fatal("pattern event never published")
	}
	if heard.Result.Variables["group1"] != "250" {
		t.Fatalf("variables %#v", heard.Result.Variables)
	}

	heard = nil
	b.Handle(ctx, &Message{UserId: "u1", ChannelId: "c1", Content: "no price here"}, out)
	if heard != nil {
		t.Fatal("unexpected pattern event")
	}
}

func marketServer(t *testing.T) *market.Client {
	t.Helper()
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/open/item/search":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"code": 0,
				"data": []map[string]interface{}{
					{"id": 1, "name": "AWP | Asiimov"},
					{"id": 2, "name": "AWP | Dragon Lore"},
				},
			})
		case "/open/item/get":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"code": 0,
				"data": map[string]interface{}{"id": 2, "name": "AWP | Dragon Lore", "rarity": "covert"},
			})
		case "/open/item/chart":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"code": 0,
				"data": []map[string]interface{}{{"time": 1, "price": 10000.0}},
			})
		default:
			http.Error(w, "unknown", http.StatusNotFound)
		}
	}))
	t.Cleanup(s.Close)

	c, err := market.NewClient(market.Config{Token: "t", BaseURL: s.URL})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestSearchFlow(t *testing.T) {
	b := testBot(t)
	ctx := context.Background()
	out := make(chan *Reply, 4)

	RegisterSearch(b, marketServer(t))

	b.Handle(ctx, &Message{UserId: "u1", ChannelId: "c1", Content: "search awp"}, out)
	r := hear(t, out)
	if !strings.Contains(r.Content, "1. AWP | Asiimov") {
		t.Fatalf("got %q", r.Content)
	}

	all, err := b.Sessions().All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("%d sessions", len(all))
	}

	// Another user's number doesn't resume the session.
	b.Handle(ctx, &Message{UserId: "intruder", ChannelId: "c1", Content: "2"}, out)
	select {
	case r := <-out:
		t.Fatalf("unexpected reply %q", r.Content)
	default:
	}

	// The right user picks item 2.
	b.Handle(ctx, &Message{UserId: "u1", ChannelId: "c1", Content: "2"}, out)
	r = hear(t, out)
	if !strings.Contains(r.Content, "Dragon Lore") || !strings.Contains(r.Content, "10000.00") {
		t.Fatalf("got %q", r.Content)
	}

	// The session was consumed.
	all, err = b.Sessions().All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Fatalf("%d sessions left", len(all))
	}

	// A second number goes nowhere.
	b.Handle(ctx, &Message{UserId: "u1", ChannelId: "c1", Content: "1"}, out)
	select {
	case r := <-out:
		t.Fatalf("unexpected reply %q", r.Content)
	default:
	}
}

func TestSearchBadChoice(t *testing.T) {
	b := testBot(t)
	ctx := context.Background()
	out := make(chan *Reply, 4)

	RegisterSearch(b, marketServer(t))

	b.Handle(ctx, &Message{UserId: "u1", ChannelId: "c1", Content: "search awp"}, out)
	hear(t, out)

	b.Handle(ctx, &Message{UserId: "u1", ChannelId: "c1", Content: "9"}, out)
	r := hear(t, out)
	if !strings.Contains(r.Content, "between 1 and 2") {
		t.Fatalf("got %q", r.Content)
	}
}

func TestStdioCoupling(t *testing.T) {
	in := strings.NewReader(`hello
{"userId":"u9","channelId":"c9","content":"hi"}
`)
	var sb strings.Builder

	s := NewStdio()
	s.In = in
	s.Out = &sb

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, out, err := s.IO(ctx)
	if err != nil {
		t.Fatal(err)
	}

	m := <-msgs
	if m.UserId != "console" || m.Content != "hello" {
		t.Fatalf("got %#v", m)
	}
	m = <-msgs
	if m.UserId != "u9" || m.ChannelId != "c9" || m.Content != "hi" {
		t.Fatalf("got %#v", m)
	}

	out <- &Reply{ChannelId: "c9", Content: "yo"}

	select {
	case <-s.InputEOF:
	case <-time.After(time.Second):
		t.Fatal("no EOF")
	}

	cancel()
	s.Stop(context.Background())

	if !strings.Contains(sb.String(), "yo") {
		t.Fatalf("output %q", sb.String())
	}
}
