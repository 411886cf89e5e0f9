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
	"strconv"
	"strings"

	"github.com/csmkt/marketbot/market"
	"github.com/csmkt/marketbot/match"
	"github.com/csmkt/marketbot/session"
)

// MaxSearchResults caps the numbered list a search reply shows.
const MaxSearchResults = 10

// searchPayload is what a search session carries: the candidates the
// user is choosing from.
type searchPayload struct {
	Keyword string             `json:"keyword"`
	Items   []market.ItemBrief `json:"items"`
}

// RegisterSearch wires the search command: "search <keyword>" lists
// matching items and opens a session waiting for the user to reply
// with a number, which selects an item and fetches its detail.
func RegisterSearch(b *Bot, client *market.Client) {
	b.Command("search", func(ctx context.Context, msg *Message, args string) (string, error) {
		if args == "" {
			return "usage: search <keyword>", nil
		}

		items, err := client.SearchItems(ctx, args)
		if err != nil {
			return "", err
		}
		if len(items) == 0 {
			return fmt.Sprintf("no items matching %q", args), nil
		}
		if MaxSearchResults < len(items) {
			items = items[:MaxSearchResults]
		}

		// Only a numeric reply from the same user resumes this
		// session.
		pattern := &match.Pattern{
			Name:     "search-choice",
			Priority: 1,
			Logic:    match.And,
			Conditions: match.Conditions{
				&match.FieldCondition{
					Field:    "event.user.id",
					Value:    msg.UserId,
					Operator: match.Equals,
				},
				&match.FieldCondition{
					Field:    "content",
					Value:    `^(\d+)$`,
					Operator: match.Regex,
				},
			},
		}

		_, err = b.sessions.Create(ctx, &session.Spec{
			SessionType: session.WaitingChoiceItem,
			EventType:   "message",
			Pattern:     pattern,
			Payload: &searchPayload{
				Keyword: args,
				Items:   items,
			},
		})
		if err != nil {
			return "", err
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "items matching %q (reply with a number):\n", args)
		for i, item := range items {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, item.Name)
		}
		return strings.TrimRight(sb.String(), "\n"), nil
	})

	b.Bus().Subscribe("message", func(ctx context.Context, ev *Event) {
		c, is := ev.Data.(*Correlation)
		if !is || c.Record.SessionType != session.WaitingChoiceItem {
			return
		}
		c.Reply(resolveChoice(ctx, client, c))
	})
}

// resolveChoice turns a numeric reply to a search session into an
// item detail report.
func resolveChoice(ctx context.Context, client *market.Client, c *Correlation) string {
	var payload searchPayload
	// The payload round-tripped through storage as JSON.
	js, err := json.Marshal(c.Record.Payload)
	if err == nil {
		err = json.Unmarshal(js, &payload)
	}
	if err != nil {
		return "sorry, that search expired"
	}

	n, err := strconv.Atoi(strings.TrimSpace(c.Message.Content))
	if err != nil || n < 1 || len(payload.Items) < n {
		return fmt.Sprintf("pick a number between 1 and %d", len(payload.Items))
	}
	chosen := payload.Items[n-1]

	detail, err := client.Item(ctx, chosen.Id)
	if err != nil {
		return fmt.Sprintf("couldn't fetch %s: %s", chosen.Name, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s", detail.Name)
	if detail.Rarity != "" {
		fmt.Fprintf(&sb, " (%s)", detail.Rarity)
	}

	if prices, err := client.ItemChart(ctx, chosen.Id, ""); err == nil && 0 < len(prices) {
		latest := prices[len(prices)-1]
		fmt.Fprintf(&sb, "\nlatest price: %.2f", latest.Price)
	}

	return sb.String()
}
