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

// Package market is a client for the CSQAQ market-data HTTP API.
package market

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// DefaultBaseURL is the public API endpoint.
var DefaultBaseURL = "https://api.csqaq.com"

type Config struct {
	// Token is the account's API token.
	Token string `json:"token" yaml:"token"`

	// BaseURL overrides DefaultBaseURL.
	BaseURL string `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`

	// IPHeader and IPValue, when both set, are sent on every
	// request.  Some deployments route by a bound IP passed this
	// way.
	IPHeader string `json:"ipHeader,omitempty" yaml:"ipHeader,omitempty"`
	IPValue  string `json:"ipValue,omitempty" yaml:"ipValue,omitempty"`

	// TimeoutMS bounds each request.  Zero means 10000.
	TimeoutMS int `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

type Client struct {
	Debug bool

	cfg    Config
	base   string
	client *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	base = strings.TrimRight(base, "/")

	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		cfg:  cfg,
		base: base,
		client: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
	}, nil
}

func (c *Client) logf(format string, args ...interface{}) {
	if c.Debug {
		log.Printf(format, args...)
	}
}

// envelope is the generic wrapper every endpoint uses.
type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg,omitempty"`
	Data json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	u := c.base + path
	c.logf("market.Client %s %s", method, u)

	var rd io.Reader
	if body != nil {
		js, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(js)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	if c.cfg.IPHeader != "" && c.cfg.IPValue != "" {
		req.Header.Set(c.cfg.IPHeader, c.cfg.IPValue)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	bs, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || 300 <= resp.StatusCode {
		return fmt.Errorf("market API error %d: %s", resp.StatusCode, string(bs))
	}

	var env envelope
	if err = json.Unmarshal(bs, &env); err != nil {
		return fmt.Errorf("market API bad response: %s (%s)", err, string(bs))
	}
	if env.Code != 0 && env.Code != 200 {
		return fmt.Errorf("market API code %d: %s", env.Code, env.Msg)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

// IndexBrief is a row of the home index overview.
type IndexBrief struct {
	Id        int64   `json:"id"`
	Name      string  `json:"name"`
	Symbol    string  `json:"symbol,omitempty"`
	LastPrice float64 `json:"lastPrice,omitempty"`
	Change24h float64 `json:"change24h,omitempty"`
}

type IndexDetail struct {
	IndexBrief
	Description  string `json:"description,omitempty"`
	Constituents []struct {
		Id     int64   `json:"id"`
		Weight float64 `json:"weight,omitempty"`
	} `json:"constituents,omitempty"`
}

type KlinePoint struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume,omitempty"`
}

type ItemBrief struct {
	Id   int64  `json:"id"`
	Name string `json:"name"`
	Game string `json:"game,omitempty"`
}

type ItemDetail struct {
	ItemBrief
	Rarity      string `json:"rarity,omitempty"`
	IconURL     string `json:"iconUrl,omitempty"`
	Description string `json:"description,omitempty"`
}

type PricePoint struct {
	Time  int64   `json:"time"`
	Price float64 `json:"price"`
}

type RankingEntry struct {
	Id    int64   `json:"id"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// HomeIndex returns the home-page index overview.
func (c *Client) HomeIndex(ctx context.Context) ([]IndexBrief, error) {
	var acc []IndexBrief
	err := c.do(ctx, "GET", "/open/index/home", nil, &acc)
	return acc, err
}

// IndexDetail returns one index.
func (c *Client) IndexDetail(ctx context.Context, id int64) (*IndexDetail, error) {
	var d IndexDetail
	q := url.Values{"id": []string{strconv.FormatInt(id, 10)}}
	if err := c.do(ctx, "GET", "/open/index/detail?"+q.Encode(), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// IndexKline returns an index's candlesticks.  The period is
// API-defined; empty means the server default.
func (c *Client) IndexKline(ctx context.Context, id int64, period string) ([]KlinePoint, error) {
	q := url.Values{"id": []string{strconv.FormatInt(id, 10)}}
	if period != "" {
		q.Set("period", period)
	}
	var acc []KlinePoint
	err := c.do(ctx, "GET", "/open/index/kline?"+q.Encode(), nil, &acc)
	return acc, err
}

// SearchItems finds items by name.
func (c *Client) SearchItems(ctx context.Context, query string) ([]ItemBrief, error) {
	q := url.Values{"q": []string{query}}
	var acc []ItemBrief
	err := c.do(ctx, "GET", "/open/item/search?"+q.Encode(), nil, &acc)
	return acc, err
}

// Item returns one item.
func (c *Client) Item(ctx context.Context, id int64) (*ItemDetail, error) {
	var d ItemDetail
	body := map[string]interface{}{"id": id}
	if err := c.do(ctx, "POST", "/open/item/get", body, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// PriceBatch returns price series for several items, keyed by item
// id.
func (c *Client) PriceBatch(ctx context.Context, ids []int64) (map[string][]PricePoint, error) {
	body := map[string]interface{}{"ids": ids}
	acc := make(map[string][]PricePoint)
	err := c.do(ctx, "POST", "/open/item/price/batch", body, &acc)
	return acc, err
}

// ItemChart returns one item's price series.
func (c *Client) ItemChart(ctx context.Context, id int64, period string) ([]PricePoint, error) {
	body := map[string]interface{}{"id": id}
	if period != "" {
		body["period"] = period
	}
	var acc []PricePoint
	err := c.do(ctx, "POST", "/open/item/chart", body, &acc)
	return acc, err
}

// Rankings returns a ranking page.
func (c *Client) Rankings(ctx context.Context, typ string, page, pageSize int) ([]RankingEntry, error) {
	body := map[string]interface{}{"type": typ}
	if 0 < page {
		body["page"] = page
	}
	if 0 < pageSize {
		body["pageSize"] = pageSize
	}
	var acc []RankingEntry
	err := c.do(ctx, "POST", "/open/rank/list", body, &acc)
	return acc, err
}

// BindLocalIP registers the caller's current IP with the API so
// subsequent requests from it are accepted.  Returns the IP the
// server saw.
func (c *Client) BindLocalIP(ctx context.Context) (string, error) {
	var ip string
	if err := c.do(ctx, "GET", "/open/user/bind_local_ip", nil, &ip); err != nil {
		return "", err
	}
	return ip, nil
}
