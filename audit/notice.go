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

// Package audit collects group notices on a schedule and persists
// them with content-based deduplication.
package audit

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Notice is one group announcement.
type Notice struct {
	GroupId     string      `json:"groupId"`
	NoticeId    string      `json:"noticeId"`
	Message     interface{} `json:"message"`
	PublishTime int64       `json:"publishTime"`
	ContentHash string      `json:"contentHash,omitempty"`
	CreatedAt   time.Time   `json:"createdAt,omitempty"`
	UpdatedAt   time.Time   `json:"updatedAt,omitempty"`
}

// ContentHash digests a notice message so identical announcements
// posted under different notice ids can be detected.
func ContentHash(message interface{}) string {
	if message == nil {
		message = map[string]interface{}{}
	}
	js, err := json.Marshal(message)
	if err != nil {
		js = []byte("{}")
	}
	sum := md5.Sum(js)
	return hex.EncodeToString(sum[:])
}

// SaveResult reports what Save did with a batch.
type SaveResult struct {
	New                int `json:"new"`
	Updated            int `json:"updated"`
	DuplicateById      int `json:"duplicateById"`
	DuplicateByContent int `json:"duplicateByContent"`
}

// DuplicateGroup is a set of stored notices sharing one content
// hash.
type DuplicateGroup struct {
	ContentHash string   `json:"contentHash"`
	Count       int      `json:"count"`
	Notices     []Notice `json:"notices"`
}

// DuplicateReport summarizes stored duplicate content.
type DuplicateReport struct {
	TotalNotices    int              `json:"totalNotices"`
	UniqueContent   int              `json:"uniqueContent"`
	DuplicateGroups int              `json:"duplicateGroups"`
	Duplicates      []DuplicateGroup `json:"duplicates"`
}
