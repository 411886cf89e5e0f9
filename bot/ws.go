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
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WS couples the bot to a OneBot-style WebSocket endpoint: inbound
// events arrive as JSON frames, and replies go out as send_group_msg
// or send_private_msg actions.
type WS struct {
	// URL is the endpoint, e.g. ws://localhost:6700.
	URL string

	// AccessToken, if set, is sent as a bearer token on the
	// handshake.
	AccessToken string

	Debug bool

	conn *websocket.Conn
	in   chan *Message
	out  chan *Reply
	wg   sync.WaitGroup

	sync.Mutex // guards writes to conn
}

func NewWS(url string) *WS {
	return &WS{
		URL: url,
		in:  make(chan *Message),
		out: make(chan *Reply),
	}
}

func (w *WS) logf(format string, args ...interface{}) {
	if w.Debug {
		log.Printf(format, args...)
	}
}

// Start dials the endpoint.
func (w *WS) Start(ctx context.Context) error {
	header := http.Header{}
	if w.AccessToken != "" {
		header.Set("Authorization", "Bearer "+w.AccessToken)
	}

	w.logf("bot.WS dialing %s", w.URL)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.URL, header)
	if err != nil {
		return err
	}
	w.conn = conn
	return nil
}

// onebotEvent is the subset of the wire event the bot uses.
type onebotEvent struct {
	PostType    string `json:"post_type"`
	MessageType string `json:"message_type"`
	UserId      int64  `json:"user_id"`
	GroupId     int64  `json:"group_id,omitempty"`
	RawMessage  string `json:"raw_message"`
	Time        int64  `json:"time"`
	Sender      struct {
		Role string `json:"role,omitempty"`
	} `json:"sender"`
}

// IO launches the read and write pumps.
func (w *WS) IO(ctx context.Context) (chan *Message, chan *Reply, error) {
	w.wg.Add(2)

	go func() {
		defer w.wg.Done()
		defer close(w.in)
		for {
			_, payload, err := w.conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("bot.WS read: %s", err)
				}
				return
			}
			msg, ok := w.parse(payload)
			if !ok {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case w.in <- msg:
			}
		}
	}()

	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case r := <-w.out:
				if err := w.send(r); err != nil {
					log.Printf("bot.WS send: %s", err)
				}
			}
		}
	}()

	return w.in, w.out, nil
}

func (w *WS) parse(payload []byte) (*Message, bool) {
	var ev onebotEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		w.logf("bot.WS dropping unparsable frame: %s", payload)
		return nil, false
	}
	if ev.PostType != "message" {
		return nil, false
	}

	channel := "private:" + strconv.FormatInt(ev.UserId, 10)
	if ev.MessageType == "group" {
		channel = "group:" + strconv.FormatInt(ev.GroupId, 10)
	}

	var raw map[string]interface{}
	json.Unmarshal(payload, &raw)

	return &Message{
		EventType:  "message",
		UserId:     strconv.FormatInt(ev.UserId, 10),
		ChannelId:  channel,
		Content:    ev.RawMessage,
		Role:       ev.Sender.Role,
		Raw:        raw,
		ReceivedAt: time.Unix(ev.Time, 0),
	}, true
}

func (w *WS) send(r *Reply) error {
	action := "send_private_msg"
	params := map[string]interface{}{
		"message": r.Content,
	}

	kind, id, found := strings.Cut(r.ChannelId, ":")
	if !found {
		return fmt.Errorf("bad channel id %q", r.ChannelId)
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("bad channel id %q: %s", r.ChannelId, err)
	}
	switch kind {
	case "group":
		action = "send_group_msg"
		params["group_id"] = n
	case "private":
		params["user_id"] = n
	default:
		return fmt.Errorf("bad channel kind %q", kind)
	}

	js, err := json.Marshal(map[string]interface{}{
		"action": action,
		"params": params,
	})
	if err != nil {
		return err
	}

	w.Lock()
	defer w.Unlock()
	return w.conn.WriteMessage(websocket.TextMessage, js)
}

// Stop closes the connection and waits for the pumps.
func (w *WS) Stop(ctx context.Context) error {
	if w.conn != nil {
		w.Lock()
		w.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		w.Unlock()
		w.conn.Close()
	}

	done := make(chan bool)
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
	case <-done:
	}
	return nil
}
