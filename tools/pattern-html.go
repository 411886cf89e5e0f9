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

// Package tools renders pattern files as human-readable documents.
package tools

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"os"

	"github.com/csmkt/marketbot/match"

	md "github.com/russross/blackfriday/v2"
)

// RenderPatternsHTML writes an HTML fragment documenting the
// patterns.  Descriptions are treated as Markdown.
func RenderPatternsHTML(patterns []*match.Pattern, out io.Writer) error {
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	f(`<div class="patterns"><table>`)
	for _, p := range patterns {
		f(`<tr class="pattern"><td><span id="%s" class="patternName">%s</span></td><td>`,
			html.EscapeString(p.Name), html.EscapeString(p.Name))

		if p.Description != "" {
			f(`<div class="patternDoc doc">%s</div>`, md.Run([]byte(p.Description)))
		}

		logic := p.Logic
		if logic == "" {
			logic = match.And
		}
		f(`<div>logic: <span class="logic">%s</span>, priority: <span class="priority">%d</span></div>`,
			logic, p.EffectivePriority())
		if !p.IsEnabled() {
			f(`<div class="disabled">disabled</div>`)
		}

		f(`<div class="conditions"><table>`)
		for i, c := range p.Conditions {
			f(`<tr><td><div class="condNum">%d</div></td><td>`, i)
			f(`<table>`)
			f(`<tr><td>type</td><td><code>%s</code></td></tr>`, c.ConditionType())
			switch cond := c.(type) {
			case *match.FieldCondition:
				f(`<tr><td>field</td><td><code>%s</code></td></tr>`, html.EscapeString(cond.Field))
				f(`<tr><td>operator</td><td><code>%s</code></td></tr>`, cond.Operator)
				f(`<tr><td>value</td><td><code>%s</code></td></tr>`, js(cond.Value))
			case *match.CustomCondition:
				f(`<tr><td>matcher</td><td><code>%s</code></td></tr>`, html.EscapeString(cond.Name))
				if cond.Value != nil {
					f(`<tr><td>value</td><td><code>%s</code></td></tr>`, js(cond.Value))
				}
				if 0 < len(cond.Config) {
					f(`<tr><td>config</td><td><code>%s</code></td></tr>`, js(cond.Config))
				}
			case *match.TimeRangeCondition:
				f(`<tr><td>window</td><td><code>%s&ndash;%s</code></td></tr>`,
					html.EscapeString(cond.Start), html.EscapeString(cond.End))
				if 0 < len(cond.Weekdays) {
					f(`<tr><td>weekdays</td><td><code>%s</code></td></tr>`, js(cond.Weekdays))
				}
			}
			f(`</table>`)
			f(`</td></tr>`)
		}
		f(`</table></div>`)

		f(`</td></tr>`)
	}
	f(`</table></div>`)

	return nil
}

// RenderPatternsPage writes a complete HTML page.
func RenderPatternsPage(title string, patterns []*match.Pattern, out io.Writer, cssFiles []string) error {
	if cssFiles == nil {
		cssFiles = []string{"/static/patterns.css"}
	}

	fmt.Fprintf(out, `<!DOCTYPE html>
<meta charset="utf-8">
<html>
  <head>
  <title>%s</title>
`, html.EscapeString(title))

	for _, cssFile := range cssFiles {
		fmt.Fprintf(out, "  <link href=\"%s\" rel=\"stylesheet\">\n", cssFile)
	}

	fmt.Fprintf(out, `
  </head>
  <body>
    <h1>%s</h1>
`, html.EscapeString(title))

	if err := RenderPatternsHTML(patterns, out); err != nil {
		return err
	}

	fmt.Fprintf(out, `
  </body>
</html>
`)

	return nil
}

// ReadAndRenderPatternsPage reads a YAML (or JSON) pattern file and
// renders its page.
func ReadAndRenderPatternsPage(filename string, cssFiles []string, out io.Writer) error {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	patterns, err := match.LoadPatterns(bs)
	if err != nil {
		return err
	}
	return RenderPatternsPage(filename, patterns, out, cssFiles)
}

func js(x interface{}) string {
	bs, err := json.Marshal(x)
	if err != nil {
		return html.EscapeString(fmt.Sprintf("%#v", x))
	}
	return html.EscapeString(string(bs))
}
