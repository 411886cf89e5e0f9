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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/csmkt/marketbot/audit"
)

// onebotSource is an audit.NoticeSource over a OneBot-compatible
// HTTP API.
type onebotSource struct {
	base   string
	token  string
	client *http.Client
}

func newOnebotSource(base, token string) *onebotSource {
	return &onebotSource{
		base:  strings.TrimRight(base, "/"),
		token: token,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *onebotSource) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	u := s.base + path
	if 0 < len(q) {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return err
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	bs, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != 200 {
		return fmt.Errorf("onebot API error %d: %s", resp.StatusCode, bs)
	}

	var env struct {
		Status  string          `json:"status"`
		Retcode int             `json:"retcode"`
		Data    json.RawMessage `json:"data"`
	}
	if err = json.Unmarshal(bs, &env); err != nil {
		return err
	}
	if env.Retcode != 0 {
		return fmt.Errorf("onebot API retcode %d", env.Retcode)
	}
	return json.Unmarshal(env.Data, out)
}

func (s *onebotSource) Groups(ctx context.Context) ([]audit.Group, error) {
	var rows []struct {
		GroupId   int64  `json:"group_id"`
		GroupName string `json:"group_name"`
	}
	if err := s.get(ctx, "/get_group_list", nil, &rows); err != nil {
		return nil, err
	}

	acc := make([]audit.Group, len(rows))
	for i, row := range rows {
		acc[i] = audit.Group{
			Id:   strconv.FormatInt(row.GroupId, 10),
			Name: row.GroupName,
		}
	}
	return acc, nil
}

func (s *onebotSource) Notices(ctx context.Context, groupId string) ([]audit.Notice, error) {
	var rows []struct {
		NoticeId    string `json:"notice_id"`
		PublishTime int64  `json:"publish_time"`
		Message     struct {
			Text string `json:"text"`
		} `json:"message"`
	}
	q := url.Values{"group_id": []string{groupId}}
	if err := s.get(ctx, "/_get_group_notice", q, &rows); err != nil {
		return nil, err
	}

	acc := make([]audit.Notice, len(rows))
	for i, row := range rows {
		acc[i] = audit.Notice{
			GroupId:     groupId,
			NoticeId:    row.NoticeId,
			Message:     row.Message.Text,
			PublishTime: row.PublishTime,
		}
	}
	return acc, nil
}
