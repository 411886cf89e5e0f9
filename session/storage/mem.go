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

package storage

import (
	"context"
	"sync"
	"time"
)

// Mem is an in-memory Store, safe for concurrent use.  Good for dev
// and tests; production wants the bolt implementation (or better).
type Mem struct {
	sync.RWMutex
	data map[string]memEntry
}

type memEntry struct {
	value     string
	expiresAt time.Time
}

func NewMem() *Mem {
	return &Mem{
		data: make(map[string]memEntry),
	}
}

func (s *Mem) Get(ctx context.Context, key string) (string, bool, error) {
	s.RLock()
	e, have := s.data[key]
	s.RUnlock()
	if !have {
		return "", false, nil
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		s.Delete(ctx, key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (s *Mem) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	e := memEntry{value: value}
	if ttl != 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	s.Lock()
	s.data[key] = e
	s.Unlock()
	return nil
}

func (s *Mem) Delete(ctx context.Context, key string) error {
	s.Lock()
	delete(s.data, key)
	s.Unlock()
	return nil
}
