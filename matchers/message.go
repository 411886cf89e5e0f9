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

package matchers

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/csmkt/marketbot/match"
)

// Message tests the inbound message text (message, text, or content
// in the context).  Config "operator": equals, contains (default),
// startsWith, endsWith, regex.  The regex operator is
// case-insensitive and binds capture groups as group1, group2, ...
type Message struct{}

func (m *Message) Name() string {
	return "message"
}

func (m *Message) Match(c *match.CustomCondition, ctx match.Context) (bool, match.Bindings, error) {
	raw, have := first(ctx, "message", "text", "content")
	if !have {
		return false, nil, nil
	}
	text := match.Stringify(raw)
	want := match.Stringify(c.Value)

	switch configString(c.Config, "operator", "contains") {
	case "equals":
		return text == want, nil, nil
	case "contains":
		return strings.Contains(text, want), nil, nil
	case "startsWith":
		return strings.HasPrefix(text, want), nil, nil
	case "endsWith":
		return strings.HasSuffix(text, want), nil, nil
	case "regex":
		re, err := regexp.Compile("(?i)" + want)
		if err != nil {
			return false, nil, nil
		}
		groups := re.FindStringSubmatch(text)
		if groups == nil {
			return false, nil, nil
		}
		var bs match.Bindings
		for i, g := range groups[1:] {
			if g == "" {
				continue
			}
			if bs == nil {
				bs = match.NewBindings()
			}
			bs["group"+strconv.Itoa(i+1)] = g
		}
		return true, bs, nil
	}
	return false, nil, nil
}
