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
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func testRepo(t *testing.T) *Repo {
	t.Helper()
	r := NewRepo(filepath.Join(t.TempDir(), "audit.db"))
	if err := r.Open(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		r.Close()
	})
	return r
}

func TestRepoSaveDedup(t *testing.T) {
	r := testRepo(t)

	batch := []Notice{
		{NoticeId: "n1", Message: "server down tonight", PublishTime: 100},
		{NoticeId: "n2", Message: "new trade rules", PublishTime: 200},
	}
	got, err := r.Save("g1", batch)
	if err != nil {
		t.Fatal(err)
	}
	if got.New != 2 {
		t.Fatalf("got %#v", got)
	}

	// Same ids, same content.
	got, err = r.Save("g1", batch)
	if err != nil {
		t.Fatal(err)
	}
	if got.DuplicateById != 2 || got.New != 0 {
		t.Fatalf("got %#v", got)
	}

	// Same id, changed content.
	got, err = r.Save("g1", []Notice{
		{NoticeId: "n1", Message: "server back up", PublishTime: 100},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Updated != 1 {
		t.Fatalf("got %#v", got)
	}

	// New id, content already stored elsewhere.
	got, err = r.Save("g2", []Notice{
		{NoticeId: "n3", Message: "new trade rules", PublishTime: 300},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.DuplicateByContent != 1 || got.New != 0 {
		t.Fatalf("got %#v", got)
	}

	all, err := r.All("")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("stored %d notices", len(all))
	}
}

func TestRepoDuplicatesAndClean(t *testing.T) {
	r := testRepo(t)

	// Bypass Save's content dedup to plant duplicates.
	for _, n := range []Notice{
		{NoticeId: "a", Message: "hello", PublishTime: 100},
		{NoticeId: "c", Message: "other", PublishTime: 150},
	} {
		if _, err := r.Save("g1", []Notice{n}); err != nil {
			t.Fatal(err)
		}
	}
	// An update that converges on existing content makes a true
	// duplicate pair.
	if _, err := r.Save("g1", []Notice{
		{NoticeId: "c", Message: "hello", PublishTime: 150},
	}); err != nil {
		t.Fatal(err)
	}

	report, err := r.Duplicates("")
	if err != nil {
		t.Fatal(err)
	}
	if report.DuplicateGroups != 1 || report.Duplicates[0].Count != 2 {
		t.Fatalf("got %#v", report)
	}

	cleaned, err := r.CleanDuplicates("")
	if err != nil {
		t.Fatal(err)
	}
	if cleaned != 1 {
		t.Fatalf("cleaned %d", cleaned)
	}

	all, err := r.All("")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("remaining %#v", all)
	}
	// The later publish survives.
	if all[0].NoticeId != "c" {
		t.Fatalf("kept %q", all[0].NoticeId)
	}
}

type fakeSource struct {
	groups  []Group
	notices map[string][]Notice
	fail    map[string]bool
}

func (s *fakeSource) Groups(ctx context.Context) ([]Group, error) {
	return s.groups, nil
}

func (s *fakeSource) Notices(ctx context.Context, groupId string) ([]Notice, error) {
	if s.fail[groupId] {
		return nil, errors.New("api down")
	}
	return s.notices[groupId], nil
}

func TestAuditorCollect(t *testing.T) {
	now := time.Date(2026, 8, 30, 4, 0, 0, 0, time.UTC)
	fresh := now.Add(-24 * time.Hour).Unix()
	stale := now.Add(-120 * 24 * time.Hour).Unix()

	src := &fakeSource{
		groups: []Group{
			{Id: "g1", Name: "traders"},
			{Id: "g2", Name: "broken"},
			{Id: "g3", Name: "quiet"},
		},
		notices: map[string][]Notice{
			"g1": {
				{NoticeId: "n1", Message: "m1", PublishTime: fresh},
				{NoticeId: "n2", Message: "m2", PublishTime: stale},
			},
		},
		fail: map[string]bool{"g2": true},
	}

	a := NewAuditor(src, testRepo(t))
	a.SetNow(func() time.Time { return now })

	stats, err := a.Collect(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	// The failing group is skipped, not fatal.
	if stats.Groups != 2 {
		t.Fatalf("groups %d", stats.Groups)
	}
	// The stale notice is filtered out.
	if stats.Collected != 1 || stats.Saved.New != 1 {
		t.Fatalf("got %#v", stats)
	}
}
