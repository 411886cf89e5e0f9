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

// Package session persists pending multi-turn interactions and
// correlates inbound messages with them.
//
// When a command needs a follow-up message (say a numeric reply
// choosing an item from a listing), it creates a Record carrying a
// match.Pattern.  The Service later tests every live Record's pattern
// against each inbound message context and hands the matches back,
// best priority first.  The caller dispatches and then removes the
// consumed Records; the Service itself never transitions them.
package session

import (
	"errors"
	"time"

	"github.com/csmkt/marketbot/match"
)

// NotFound reports that a session id has no (readable) record.  It
// is distinguishable from a store fault.
var NotFound = errors.New("session not found")

// Type tags what kind of follow-up a Record waits for.
type Type string

const (
	WaitingChoiceItem    Type = "waiting_choice_item"
	WaitingSearchKeyword Type = "waiting_search_keyword"
	WaitingPriceInput    Type = "waiting_price_input"
	WaitingConfirmTrade  Type = "waiting_confirm_trade"
	WaitingUserResponse  Type = "waiting_user_response"
)

// Record is a persisted pending interaction.
//
// Id is globally unique and doubles as the storage key and the
// correlation handle.  The Pattern is immutable after creation.
type Record struct {
	Id          string         `json:"id"`
	SessionType Type           `json:"sessionType"`
	EventType   string         `json:"eventType"`
	Pattern     *match.Pattern `json:"pattern"`
	Payload     interface{}    `json:"payload,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// Summary is the Record as kept in the session index: everything but
// the payload.  Matching runs against Summaries so that the full
// record is only loaded for actual matches.
type Summary struct {
	Id          string         `json:"id"`
	SessionType Type           `json:"sessionType"`
	EventType   string         `json:"eventType"`
	Pattern     *match.Pattern `json:"pattern"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// Spec is what a caller provides to create a Record.
type Spec struct {
	SessionType Type
	EventType   string
	Pattern     *match.Pattern
	Payload     interface{}
}

func (r *Record) summary() *Summary {
	return &Summary{
		Id:          r.Id,
		SessionType: r.SessionType,
		EventType:   r.EventType,
		Pattern:     r.Pattern,
		CreatedAt:   r.CreatedAt,
	}
}
