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

// Package main runs the market bot: a chat transport, the session
// correlation service, the standing pattern engine, and the
// scheduled jobs, wired per a YAML config.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/csmkt/marketbot/audit"
	"github.com/csmkt/marketbot/bot"
	"github.com/csmkt/marketbot/market"
	"github.com/csmkt/marketbot/match"
	"github.com/csmkt/marketbot/matchers"
	"github.com/csmkt/marketbot/matchers/scripted"
	"github.com/csmkt/marketbot/session"
	"github.com/csmkt/marketbot/session/storage"
	boltstore "github.com/csmkt/marketbot/session/storage/bolt"
	"github.com/csmkt/marketbot/timers"
)

func main() {
	var (
		configFile = flag.String("c", "", "YAML config filename")
		io         = flag.String("io", "", `transport: "std", "ws", or "mqtt" (overrides config)`)
		verbose    = flag.Bool("v", false, "verbose (overrides config)")
	)

	flag.Parse()

	conf, err := LoadConfig(*configFile)
	if err != nil {
		log.Fatal(err)
	}
	if *io != "" {
		conf.IO = *io
	}
	if *verbose {
		conf.Verbose = true
	}

	location := time.Local
	if conf.Timezone != "" {
		if location, err = time.LoadLocation(conf.Timezone); err != nil {
			log.Fatal(err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Printf("shutting down")
		cancel()
	}()

	// Session storage.
	var store storage.Store
	if conf.Store.File != "" {
		bs, err := boltstore.NewStore(conf.Store.File)
		if err != nil {
			log.Fatal(err)
		}
		if err = bs.Open(ctx); err != nil {
			log.Fatal(err)
		}
		defer bs.Close(context.Background())
		store = bs
	} else {
		store = storage.NewMem()
	}

	// Matchers: the standard set plus the scripted one.
	registry := matchers.Standard()
	registry.Register(scripted.NewMatcher())

	sessions := session.NewService(store, registry)
	sessions.Verbose = conf.Verbose
	sessions.Location = location
	sessions.TTL = time.Duration(conf.Store.TTLHours) * time.Hour

	// Transport.
	var couplings bot.Couplings
	switch conf.IO {
	case "", "std":
		couplings = bot.NewStdio()
	case "ws":
		ws := bot.NewWS(conf.WS.URL)
		ws.AccessToken = conf.WS.AccessToken
		ws.Debug = conf.Verbose
		couplings = ws
	case "mq", "mqtt":
		mq := bot.NewMQTT(conf.MQTT)
		mq.Debug = conf.Verbose
		couplings = mq
	default:
		log.Fatalf("unknown io: %q", conf.IO)
	}

	b := bot.New(couplings, sessions)
	b.Verbose = conf.Verbose

	// Standing patterns.
	if conf.Patterns != "" {
		bs, err := os.ReadFile(conf.Patterns)
		if err != nil {
			log.Fatal(err)
		}
		patterns, err := match.LoadPatterns(bs)
		if err != nil {
			log.Fatal(err)
		}
		engine := match.NewEngine(registry)
		engine.Verbose = conf.Verbose
		engine.Location = location
		for _, p := range patterns {
			engine.AddPattern(p)
		}
		b.SetEngine(engine)
		log.Printf("loaded %d standing patterns from %s", len(patterns), conf.Patterns)
	}

	// Market client and its features.
	var client *market.Client
	if conf.Market.Token != "" || conf.Market.BaseURL != "" {
		if client, err = market.NewClient(conf.Market); err != nil {
			log.Fatal(err)
		}
		client.Debug = conf.Verbose
		bot.RegisterSearch(b, client)
	}

	// Scheduled jobs.
	scheduler := timers.NewScheduler(256)
	scheduler.Debug = conf.Verbose
	go scheduler.Run(ctx)
	if !scheduler.Wait(time.Second) {
		log.Fatal("scheduler didn't start")
	}

	if conf.BindIP && client != nil {
		bind := func(ctx context.Context, _ time.Time) {
			ip, err := client.BindLocalIP(ctx)
			if err != nil {
				log.Printf("ip binding: %s", err)
				return
			}
			log.Printf("ip binding: bound %s", ip)
		}
		if _, err := scheduler.Recur("bind-ip", "* * * * *", location, bind); err != nil {
			log.Fatal(err)
		}
		go bind(ctx, time.Now())
	}

	if conf.Audit.File != "" && conf.Audit.API != "" {
		repo := audit.NewRepo(conf.Audit.File)
		repo.Debug = conf.Verbose
		if err := repo.Open(); err != nil {
			log.Fatal(err)
		}
		defer repo.Close()

		auditor := audit.NewAuditor(newOnebotSource(conf.Audit.API, conf.Audit.Token), repo)
		auditor.Verbose = conf.Verbose
		auditor.Location = location
		if _, err := auditor.Register(scheduler); err != nil {
			log.Fatal(err)
		}
	}

	if std, is := couplings.(*bot.Stdio); is {
		go func() {
			<-std.InputEOF
			log.Printf("input EOF")
			cancel()
		}()
	}

	if err := b.Run(ctx); err != nil {
		log.Fatal(err)
	}
}
