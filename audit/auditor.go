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

package audit

import (
	"context"
	"log"
	"time"

	"github.com/csmkt/marketbot/timers"
)

// DefaultWindow is how far back collected notices are kept.
const DefaultWindow = 90 * 24 * time.Hour

// CollectSpec is the default collection schedule: daily at 04:00.
const CollectSpec = "0 4 * * *"

// Group identifies one chat group of the bot.
type Group struct {
	Id   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// NoticeSource lists the bot's groups and their announcements.  The
// bot transport implements this.
type NoticeSource interface {
	Groups(ctx context.Context) ([]Group, error)
	Notices(ctx context.Context, groupId string) ([]Notice, error)
}

// CollectStats summarizes one collection pass.
type CollectStats struct {
	Groups    int        `json:"groups"`
	Collected int        `json:"collected"`
	Saved     SaveResult `json:"saved"`
}

// Auditor walks every group, keeps the notices published within
// Window, and persists them.
type Auditor struct {
	Verbose bool

	// Window limits how old a collected notice may be.  Zero
	// means DefaultWindow.
	Window time.Duration

	// Location is the schedule's timezone.  Nil means
	// time.Local.
	Location *time.Location

	source NoticeSource
	repo   *Repo
	nowFn  func() time.Time
}

func NewAuditor(source NoticeSource, repo *Repo) *Auditor {
	return &Auditor{
		source: source,
		repo:   repo,
		nowFn:  time.Now,
	}
}

// SetNow overrides the clock.  For testing.
func (a *Auditor) SetNow(f func() time.Time) {
	a.nowFn = f
}

func (a *Auditor) logf(format string, args ...interface{}) {
	if a.Verbose {
		log.Printf(format, args...)
	}
}

// Collect runs one pass over every group.  A group that fails is
// logged and skipped; the pass continues.
func (a *Auditor) Collect(ctx context.Context) (CollectStats, error) {
	var stats CollectStats

	groups, err := a.source.Groups(ctx)
	if err != nil {
		return stats, err
	}
	a.logf("audit: collecting notices from %d groups", len(groups))

	window := a.Window
	if window == 0 {
		window = DefaultWindow
	}
	cutoff := a.nowFn().Add(-window).Unix()

	for _, g := range groups {
		notices, err := a.source.Notices(ctx, g.Id)
		if err != nil {
			log.Printf("audit: group %s (%s): %s", g.Name, g.Id, err)
			continue
		}

		recent := notices[:0:0]
		for _, n := range notices {
			if cutoff < n.PublishTime {
				recent = append(recent, n)
			}
		}

		if 0 < len(recent) {
			saved, err := a.repo.Save(g.Id, recent)
			if err != nil {
				log.Printf("audit: saving group %s (%s): %s", g.Name, g.Id, err)
				continue
			}
			stats.Saved.New += saved.New
			stats.Saved.Updated += saved.Updated
			stats.Saved.DuplicateById += saved.DuplicateById
			stats.Saved.DuplicateByContent += saved.DuplicateByContent
		}

		stats.Collected += len(recent)
		stats.Groups++
	}

	a.logf("audit: pass complete: %d groups, %d notices, %d new",
		stats.Groups, stats.Collected, stats.Saved.New)

	return stats, nil
}

// Register puts the daily collection pass on the scheduler.
func (a *Auditor) Register(ts *timers.Scheduler) (stop func(), err error) {
	return ts.Recur("audit-collect", CollectSpec, a.Location, func(ctx context.Context, _ time.Time) {
		if _, err := a.Collect(ctx); err != nil {
			log.Printf("audit: collection pass: %s", err)
		}
	})
}
