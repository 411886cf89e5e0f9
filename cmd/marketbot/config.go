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
	"os"

	"github.com/csmkt/marketbot/bot"
	"github.com/csmkt/marketbot/market"

	"gopkg.in/yaml.v2"
)

// Config is the bot's YAML configuration.
type Config struct {
	Verbose bool `yaml:"verbose"`

	// Timezone is an IANA name (e.g. Asia/Shanghai) used for
	// timeRange conditions and schedules.  Empty means the
	// process's local zone.
	Timezone string `yaml:"timezone"`

	// IO picks the transport: "std", "ws", or "mqtt".
	IO string `yaml:"io"`

	WS struct {
		URL         string `yaml:"url"`
		AccessToken string `yaml:"accessToken"`
	} `yaml:"ws"`

	MQTT bot.MQTTConfig `yaml:"mqtt"`

	Store struct {
		// File names the Bolt database holding sessions.
		// Empty means in-memory only.
		File string `yaml:"file"`

		// TTLHours expires abandoned sessions.  Zero means
		// never.
		TTLHours int `yaml:"ttlHours"`
	} `yaml:"store"`

	Market market.Config `yaml:"market"`

	// BindIP re-binds the local IP with the market API every
	// minute.
	BindIP bool `yaml:"bindIp"`

	// Patterns names a YAML file of standing patterns.
	Patterns string `yaml:"patterns"`

	Audit struct {
		// File names the Bolt database holding collected
		// notices.  Empty disables collection.
		File string `yaml:"file"`

		// API is a OneBot-compatible HTTP endpoint used to
		// list groups and their notices.
		API   string `yaml:"api"`
		Token string `yaml:"token"`
	} `yaml:"audit"`
}

func LoadConfig(filename string) (*Config, error) {
	conf := &Config{}
	if filename == "" {
		return conf, nil
	}
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	if err = yaml.Unmarshal(bs, conf); err != nil {
		return nil, err
	}
	return conf, nil
}
