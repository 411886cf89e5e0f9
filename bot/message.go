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
	"time"

	"github.com/csmkt/marketbot/match"
)

// Message is one inbound chat event, normalized across transports.
type Message struct {
	// EventType is usually "message".
	EventType string `json:"eventType"`

	UserId    string `json:"userId"`
	ChannelId string `json:"channelId"`
	Content   string `json:"content"`

	// Role is the sender's role in the channel, when the
	// transport reports one.
	Role string `json:"role,omitempty"`

	// Raw carries transport-specific fields for pattern authors.
	Raw map[string]interface{} `json:"raw,omitempty"`

	ReceivedAt time.Time `json:"-"`
}

// Reply is one outbound message.
type Reply struct {
	ChannelId string `json:"channelId"`
	UserId    string `json:"userId,omitempty"`
	Content   string `json:"content"`
}

// MatchContext renders the message as a pattern-matching context.
// Both the nested event.user.id style and the flat userId style are
// populated so either addressing works in patterns.
func (m *Message) MatchContext() match.Context {
	mctx := match.Context{
		"event": map[string]interface{}{
			"user": map[string]interface{}{
				"id": m.UserId,
			},
			"channel": map[string]interface{}{
				"id": m.ChannelId,
			},
		},
		"user": map[string]interface{}{
			"id":   m.UserId,
			"role": m.Role,
		},
		"userId":    m.UserId,
		"channelId": m.ChannelId,
		"content":   m.Content,
		"message":   m.Content,
		"eventType": m.EventType,
	}
	if !m.ReceivedAt.IsZero() {
		mctx["timestamp"] = m.ReceivedAt.UnixMilli()
	}
	for k, v := range m.Raw {
		if _, have := mctx[k]; !have {
			mctx[k] = v
		}
	}
	return mctx
}
