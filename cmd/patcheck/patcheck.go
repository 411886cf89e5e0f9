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

// Package main is a little command-line utility to check patterns
// against a message context.
//
//   patcheck -p '[{"name":"n","conditions":[{"type":"field","field":"content","value":"^(\\d+)$","operator":"regex"}]}]' \
//            -c '{"content":"42"}'
//
// Pattern files (-f) may be YAML or JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/csmkt/marketbot/match"
	"github.com/csmkt/marketbot/matchers"
)

func main() {
	var (
		patternsJS  = flag.String("p", "", "patterns in JSON")
		patternFile = flag.String("f", "", "patterns filename (YAML or JSON)")
		contextJS   = flag.String("c", "{}", "message context in JSON")
		tz          = flag.String("tz", "", "timezone for timeRange conditions (IANA name)")
		bench       = flag.Int("bench", 0, "number of times to run (and report time)")
		verbose     = flag.Bool("v", false, "verbosity")
	)

	flag.Parse()

	var patterns []*match.Pattern
	switch {
	case *patternFile != "":
		bs, err := os.ReadFile(*patternFile)
		if err != nil {
			log.Fatal(err)
		}
		if patterns, err = match.LoadPatterns(bs); err != nil {
			log.Fatal(err)
		}
	case *patternsJS != "":
		if err := json.Unmarshal([]byte(*patternsJS), &patterns); err != nil {
			log.Fatal(err)
		}
	default:
		log.Fatal("give patterns with -p or -f")
	}

	var mctx match.Context
	if err := json.Unmarshal([]byte(*contextJS), &mctx); err != nil {
		log.Fatal(err)
	}

	e := match.NewEngine(matchers.Standard())
	e.Verbose = *verbose
	if *tz != "" {
		loc, err := time.LoadLocation(*tz)
		if err != nil {
			log.Fatal(err)
		}
		e.Location = loc
	}
	for _, p := range patterns {
		e.AddPattern(p)
	}

	if 0 < *bench {
		var stats runtime.MemStats
		runtime.ReadMemStats(&stats)
		allocs := stats.TotalAlloc
		then := time.Now()
		for i := 0; i < *bench; i++ {
			e.Match(mctx)
		}
		elapsed := time.Since(then)
		meanNanos := elapsed.Nanoseconds() / int64(*bench)

		runtime.ReadMemStats(&stats)
		allocated := (stats.TotalAlloc - allocs) / uint64(*bench)

		log.Printf("%d iterations, %d mean ns/Match, %d mean bytes allocated per Match",
			*bench, meanNanos, allocated)
	}

	results := e.Match(mctx)

	js, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s\n", js)

	if len(results) == 0 {
		os.Exit(1)
	}
}
