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
	"encoding/json"
	"log"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
)

var noticesBucket = []byte("notices")

// Repo persists notices in a Bolt database, keyed by notice id.
type Repo struct {
	Debug bool

	filename string
	db       *bolt.DB
}

func NewRepo(filename string) *Repo {
	return &Repo{
		filename: filename,
	}
}

func (r *Repo) logf(format string, args ...interface{}) {
	if r.Debug {
		log.Printf(format, args...)
	}
}

func (r *Repo) Open() error {
	r.logf("audit.Repo opening %s", r.filename)
	db, err := bolt.Open(r.filename, 0600, &bolt.Options{
		Timeout: 2 * time.Second,
	})
	if err != nil {
		return err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(noticesBucket)
		return err
	})
	if err != nil {
		return err
	}
	r.db = db
	return nil
}

func (r *Repo) Close() error {
	r.logf("audit.Repo closing %s", r.filename)
	return r.db.Close()
}

// Save writes a batch of notices for one group with two layers of
// deduplication: a notice id already stored is rewritten only when
// its content changed, and a new notice id carrying content already
// stored under some other id is dropped.
func (r *Repo) Save(groupId string, notices []Notice) (SaveResult, error) {
	var result SaveResult
	if len(notices) == 0 {
		return result, nil
	}

	now := time.Now()

	err := r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(noticesBucket)

		// Content hashes of everything already stored.
		hashes := make(map[string]bool)
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var n Notice
			if err := json.Unmarshal(v, &n); err != nil {
				continue
			}
			hashes[n.ContentHash] = true
		}

		for _, n := range notices {
			n.GroupId = groupId
			n.ContentHash = ContentHash(n.Message)

			key := []byte(n.NoticeId)
			if v := b.Get(key); v != nil {
				var stored Notice
				if err := json.Unmarshal(v, &stored); err == nil && stored.ContentHash == n.ContentHash {
					result.DuplicateById++
					continue
				}
				n.CreatedAt = stored.CreatedAt
				n.UpdatedAt = now
				js, err := json.Marshal(&n)
				if err != nil {
					return err
				}
				if err = b.Put(key, js); err != nil {
					return err
				}
				result.Updated++
				continue
			}

			if hashes[n.ContentHash] {
				r.logf("audit.Repo duplicate content: group=%s notice=%s", groupId, n.NoticeId)
				result.DuplicateByContent++
				continue
			}

			n.CreatedAt = now
			n.UpdatedAt = now
			js, err := json.Marshal(&n)
			if err != nil {
				return err
			}
			if err = b.Put(key, js); err != nil {
				return err
			}
			hashes[n.ContentHash] = true
			result.New++
		}

		return nil
	})

	return result, err
}

// All returns stored notices, optionally limited to one group.  An
// empty groupId means everything.
func (r *Repo) All(groupId string) ([]Notice, error) {
	var acc []Notice
	err := r.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(noticesBucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var n Notice
			if err := json.Unmarshal(v, &n); err != nil {
				continue
			}
			if groupId != "" && n.GroupId != groupId {
				continue
			}
			acc = append(acc, n)
		}
		return nil
	})
	return acc, err
}

// Duplicates reports stored notices that share content.
func (r *Repo) Duplicates(groupId string) (*DuplicateReport, error) {
	notices, err := r.All(groupId)
	if err != nil {
		return nil, err
	}

	byHash := make(map[string][]Notice)
	for _, n := range notices {
		byHash[n.ContentHash] = append(byHash[n.ContentHash], n)
	}

	report := &DuplicateReport{
		TotalNotices:  len(notices),
		UniqueContent: len(byHash),
	}

	hashes := make([]string, 0, len(byHash))
	for h, group := range byHash {
		if 1 < len(group) {
			hashes = append(hashes, h)
		}
	}
	sort.Strings(hashes)

	for _, h := range hashes {
		group := byHash[h]
		report.Duplicates = append(report.Duplicates, DuplicateGroup{
			ContentHash: h,
			Count:       len(group),
			Notices:     group,
		})
	}
	report.DuplicateGroups = len(report.Duplicates)

	return report, nil
}

// CleanDuplicates deletes all but the most recently published notice
// of each duplicated content group.
func (r *Repo) CleanDuplicates(groupId string) (int, error) {
	report, err := r.Duplicates(groupId)
	if err != nil {
		return 0, err
	}

	cleaned := 0
	err = r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(noticesBucket)
		for _, dup := range report.Duplicates {
			group := append([]Notice(nil), dup.Notices...)
			sort.Slice(group, func(i, j int) bool {
				return group[j].PublishTime < group[i].PublishTime
			})
			for _, n := range group[1:] {
				if err := b.Delete([]byte(n.NoticeId)); err != nil {
					return err
				}
				cleaned++
			}
		}
		return nil
	})

	return cleaned, err
}
