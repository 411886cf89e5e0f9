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

package tools

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/csmkt/marketbot/match"
)

var testPatterns = `
- name: vip-watch
  description: Watch for *VIP* traders.
  logic: AND
  priority: 5
  conditions:
    - type: field
      field: user.level
      value: 10
      operator: gte
    - type: custom
      name: market
      value: 1000
      config:
        type: itemPrice
        operator: gte
    - type: timeRange
      value:
        start: "09:00"
        end: "18:00"
`

func loadTestPatterns(t *testing.T) []*match.Pattern {
	t.Helper()
	patterns, err := match.LoadPatterns([]byte(testPatterns))
	if err != nil {
		t.Fatal(err)
	}
	return patterns
}

func TestRenderPatternsPage(t *testing.T) {
	out := bytes.NewBuffer(make([]byte, 0, 1024*16))

	if err := RenderPatternsPage("patterns", loadTestPatterns(t), out, []string{"patterns.css"}); err != nil {
		t.Fatal(err)
	}

	got := out.String()
	for _, want := range []string{"vip-watch", "<em>VIP</em>", "user.level", "market", "09:00"} {
		if !strings.Contains(got, want) {
			t.Fatalf("output lacks %q:\n%s", want, got)
		}
	}
}

func TestReadAndRenderPatternsPage(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "patterns.yaml")
	if err := os.WriteFile(filename, []byte(testPatterns), 0644); err != nil {
		t.Fatal(err)
	}

	out := bytes.NewBuffer(nil)
	if err := ReadAndRenderPatternsPage(filename, []string{"patterns.css"}, out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "vip-watch") {
		t.Fatal("page lacks the pattern")
	}

	if err := ReadAndRenderPatternsPage(filepath.Join(t.TempDir(), "nope.yaml"), nil, out); err == nil {
		t.Fatal("wanted an error for a missing file")
	}
}

func TestDot(t *testing.T) {
	out := bytes.NewBuffer(nil)
	if err := Dot(loadTestPatterns(t), out); err != nil {
		t.Fatal(err)
	}

	got := out.String()
	for _, want := range []string{"digraph patterns", `"p_vip-watch"`, `"f_user.level"`, `"m_market"`, "gte"} {
		if !strings.Contains(got, want) {
			t.Fatalf("dot lacks %q:\n%s", want, got)
		}
	}
}
