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

package session

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"time"

	"github.com/csmkt/marketbot/match"
	"github.com/csmkt/marketbot/session/storage"

	"github.com/google/uuid"
)

const (
	// indexKey holds the id -> Summary mapping for all live
	// sessions.
	indexKey = "sessions"

	// recordKeyPrefix prefixes each full Record's own key.
	recordKeyPrefix = "session:"
)

// Service owns the persisted session records.
//
// It has no in-process cache: every correlation pass reads the
// current index from the store, so a Record created on one process is
// visible to the next pass on any other.
type Service struct {
	// Verbose turns on debug logging.
	Verbose bool

	// Location is handed to the throwaway engines built during
	// correlation, for time-range conditions.
	Location *time.Location

	// TTL, when positive, is applied to every persisted record as
	// a store-level safety net against leaked sessions.  Zero
	// means records live until removed.
	TTL time.Duration

	store    storage.Store
	matchers *match.Registry

	// newId is replaceable for tests.
	newId func() string
}

func NewService(store storage.Store, matchers *match.Registry) *Service {
	return &Service{
		store:    store,
		matchers: matchers,
		newId:    uuid.NewString,
	}
}

func (s *Service) logf(format string, args ...interface{}) {
	if s.Verbose {
		log.Printf("session.Service."+format, args...)
	}
}

// Create assigns a fresh id, persists the full record and its index
// entry, and returns the handle.  The pattern is eligible for
// correlation as soon as Create returns; there is no separate
// activation step.
func (s *Service) Create(ctx context.Context, spec *Spec) (*Record, error) {
	r := &Record{
		Id:          s.newId(),
		SessionType: spec.SessionType,
		EventType:   spec.EventType,
		Pattern:     spec.Pattern,
		Payload:     spec.Payload,
		CreatedAt:   time.Now(),
	}
	s.logf("Create %s (%s)", r.Id, r.SessionType)

	js, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, recordKeyPrefix+r.Id, string(js), s.TTL); err != nil {
		return nil, err
	}

	index, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	index[r.Id] = r.summary()
	if err := s.writeIndex(ctx, index); err != nil {
		return nil, err
	}

	return r, nil
}

// All returns the current session index.  An absent index is an
// empty one.
func (s *Service) All(ctx context.Context) (map[string]*Summary, error) {
	js, have, err := s.store.Get(ctx, indexKey)
	if err != nil {
		return nil, err
	}
	index := make(map[string]*Summary)
	if !have {
		return index, nil
	}
	if err := json.Unmarshal([]byte(js), &index); err != nil {
		return nil, err
	}
	return index, nil
}

func (s *Service) writeIndex(ctx context.Context, index map[string]*Summary) error {
	js, err := json.Marshal(index)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, indexKey, string(js), 0)
}

// Load fetches one full Record by id.  A missing or unreadable
// record is NotFound; a store fault is returned as-is.
func (s *Service) Load(ctx context.Context, id string) (*Record, error) {
	js, have, err := s.store.Get(ctx, recordKeyPrefix+id)
	if err != nil {
		return nil, err
	}
	if !have {
		return nil, NotFound
	}
	var r Record
	if err := json.Unmarshal([]byte(js), &r); err != nil {
		s.logf("Load %s unreadable: %s", id, err)
		return nil, NotFound
	}
	if r.Id == "" {
		r.Id = id
	}
	return &r, nil
}

// FindMatching tests the context against every live session's
// pattern and returns the full records of the matches, sorted
// ascending by pattern priority.
//
// Matching runs against the lightweight index entries; a record is
// re-read in full only once its pattern matched.  A record that
// fails to load or match cleanly is logged and skipped so that one
// bad session never blocks correlation of the rest.
func (s *Service) FindMatching(ctx context.Context, mctx match.Context) ([]*Record, error) {
	index, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	// Walk ids in a fixed order so that equal-priority results
	// come out deterministically.
	ids := make([]string, 0, len(index))
	for id := range index {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var acc []*Record
	for _, id := range ids {
		sum := index[id]
		if sum == nil || sum.Pattern == nil {
			continue
		}

		e := match.NewEngine(s.matchers)
		e.Location = s.Location
		e.AddPattern(sum.Pattern)
		if 0 == len(e.Match(mctx)) {
			continue
		}

		r, err := s.Load(ctx, id)
		if err != nil {
			log.Printf("session.Service.FindMatching skipping %s: %s", id, err)
			continue
		}
		acc = append(acc, r)
	}

	sort.SliceStable(acc, func(i, j int) bool {
		return acc[i].Pattern.EffectivePriority() < acc[j].Pattern.EffectivePriority()
	})

	s.logf("FindMatching: %d of %d", len(acc), len(index))

	return acc, nil
}

// Remove deletes the session from the index and its record key.
// Removing an id that is already gone is not an error.
func (s *Service) Remove(ctx context.Context, id string) error {
	s.logf("Remove %s", id)

	index, err := s.All(ctx)
	if err != nil {
		return err
	}
	if _, have := index[id]; have {
		delete(index, id)
		if err := s.writeIndex(ctx, index); err != nil {
			return err
		}
	}

	return s.store.Delete(ctx, recordKeyPrefix+id)
}
