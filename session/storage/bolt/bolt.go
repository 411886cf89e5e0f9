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

// Package bolt is a storage.Store backed by a bbolt file.
package bolt

import (
	"context"
	"encoding/json"
	"log"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("kv")

// Store persists keys in a single bbolt bucket.  TTLs are enforced
// lazily: an expired entry is dropped when Get sees it.
type Store struct {
	Debug    bool
	filename string
	db       *bolt.DB
}

// entry is the stored form of a value.
type entry struct {
	Value     string `json:"v"`
	ExpiresAt int64  `json:"exp,omitempty"` // unix seconds; 0 = never
}

func NewStore(filename string) (*Store, error) {
	return &Store{
		filename: filename,
	}, nil
}

func (s *Store) Open(ctx context.Context) error {
	opts := &bolt.Options{
		Timeout: time.Second,
	}

	db, err := bolt.Open(s.filename, 0644, opts)
	if err != nil {
		return err
	}
	s.db = db

	return s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
}

func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) logf(format string, args ...interface{}) {
	if s.Debug {
		log.Printf("bolt.Store."+format, args...)
	}
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	s.logf("Get %s", key)

	var (
		value   string
		have    bool
		expired bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		bs := tx.Bucket(bucketName).Get([]byte(key))
		if bs == nil {
			return nil
		}
		var e entry
		if err := json.Unmarshal(bs, &e); err != nil {
			return err
		}
		if e.ExpiresAt != 0 && e.ExpiresAt <= time.Now().Unix() {
			expired = true
			return nil
		}
		value, have = e.Value, true
		return nil
	})
	if err != nil {
		return "", false, err
	}

	if expired {
		// Best effort; the entry will be re-seen (and re-skipped)
		// if this delete loses a race.
		if err := s.Delete(ctx, key); err != nil {
			s.logf("Get %s expiry delete: %s", key, err)
		}
	}

	return value, have, nil
}

func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.logf("Set %s (ttl %s)", key, ttl)

	e := entry{Value: value}
	if ttl != 0 {
		e.ExpiresAt = time.Now().Add(ttl).Unix()
	}
	bs, err := json.Marshal(&e)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), bs)
	})
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.logf("Delete %s", key)

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(key))
	})
}
