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
	"fmt"
	"io"
	"strings"

	"github.com/csmkt/marketbot/match"
)

// Dot renders a Graphviz graph of patterns and the fields and custom
// matchers they reference, which gives a quick overview of what a
// pattern file watches.
func Dot(patterns []*match.Pattern, out io.Writer) error {
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	f("digraph patterns {")
	f(`  rankdir="LR";`)
	f(`  node [fontname="monospace"];`)

	for _, p := range patterns {
		pn := dotId("p_" + p.Name)
		f(`  %s [label="%s (%d)" shape=box];`, pn, dotLabel(p.Name), p.EffectivePriority())

		for _, c := range p.Conditions {
			switch cond := c.(type) {
			case *match.FieldCondition:
				fn := dotId("f_" + cond.Field)
				f(`  %s [label="%s" shape=ellipse];`, fn, dotLabel(cond.Field))
				f(`  %s -> %s [label="%s"];`, pn, fn, cond.Operator)
			case *match.CustomCondition:
				mn := dotId("m_" + cond.Name)
				f(`  %s [label="%s" shape=diamond];`, mn, dotLabel(cond.Name))
				f(`  %s -> %s;`, pn, mn)
			case *match.TimeRangeCondition:
				tn := dotId("t_" + p.Name)
				f(`  %s [label="%s-%s" shape=ellipse style=dashed];`, tn,
					dotLabel(cond.Start), dotLabel(cond.End))
				f(`  %s -> %s;`, pn, tn)
			}
		}
	}

	f("}")

	return nil
}

func dotId(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		if r == '"' || r == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	sb.WriteByte('"')
	return sb.String()
}

func dotLabel(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
