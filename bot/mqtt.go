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

package bot

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConfig configures an MQTT coupling.
type MQTTConfig struct {
	// Broker is e.g. tcp://localhost:1883.
	Broker   string `json:"broker" yaml:"broker"`
	ClientId string `json:"clientId,omitempty" yaml:"clientId,omitempty"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`

	// SubTopics is a comma-separated list of subscription
	// topics.
	SubTopics string `json:"subTopics" yaml:"subTopics"`

	// PubTopic is where replies go.
	PubTopic string `json:"pubTopic" yaml:"pubTopic"`

	// KeepAliveSecs defaults to 10.
	KeepAliveSecs int `json:"keepAlive,omitempty" yaml:"keepAlive,omitempty"`

	// QuiesceMS is the disconnection quiescence in milliseconds.
	QuiesceMS uint `json:"quiesce,omitempty" yaml:"quiesce,omitempty"`
}

// MQTT couples the bot to an MQTT broker: messages arrive as JSON
// payloads on the subscribed topics, and replies are published as
// JSON to PubTopic.
type MQTT struct {
	Debug bool

	cfg    MQTTConfig
	client mqtt.Client

	// InTimeout bounds inbound queuing.
	InTimeout time.Duration

	in  chan *Message
	out chan *Reply
}

func NewMQTT(cfg MQTTConfig) *MQTT {
	m := &MQTT{
		cfg:       cfg,
		InTimeout: time.Second,
		in:        make(chan *Message),
		out:       make(chan *Reply),
	}

	keepAlive := cfg.KeepAliveSecs
	if keepAlive == 0 {
		keepAlive = 10
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientId)
	opts.SetKeepAlive(time.Duration(keepAlive) * time.Second)
	opts.Username = cfg.Username
	opts.Password = cfg.Password
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		log.Printf("bot.MQTT connection lost: %s", err)
	}

	m.client = mqtt.NewClient(opts)
	return m
}

func (m *MQTT) logf(format string, args ...interface{}) {
	if m.Debug {
		log.Printf(format, args...)
	}
}

// Start connects to the broker and subscribes.
func (m *MQTT) Start(ctx context.Context) error {
	m.logf("bot.MQTT connecting to %s", m.cfg.Broker)
	if token := m.client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}

	handler := func(client mqtt.Client, wire mqtt.Message) {
		m.inHandler(ctx, wire)
	}

	for _, topic := range strings.Split(m.cfg.SubTopics, ",") {
		topic = strings.TrimSpace(topic)
		if topic == "" {
			continue
		}
		m.logf("bot.MQTT subscribing to %s", topic)
		if t := m.client.Subscribe(topic, 0, handler); t.Wait() && t.Error() != nil {
			return t.Error()
		}
	}

	return nil
}

// inHandler forwards a broker message to the bot.  A payload that
// won't parse as a Message is dropped with a warning.
func (m *MQTT) inHandler(ctx context.Context, wire mqtt.Message) {
	var msg Message
	if err := json.Unmarshal(wire.Payload(), &msg); err != nil {
		log.Printf("bot.MQTT dropping unparsable payload on %s: %s", wire.Topic(), err)
		return
	}
	if msg.ChannelId == "" {
		msg.ChannelId = wire.Topic()
	}
	msg.ReceivedAt = time.Now()

	to := time.NewTimer(m.InTimeout)
	defer to.Stop()
	select {
	case <-ctx.Done():
	case m.in <- &msg:
	case <-to.C:
		log.Printf("bot.MQTT dropping inbound message due to stall")
	}
}

// IO launches the outbound loop.
func (m *MQTT) IO(ctx context.Context) (chan *Message, chan *Reply, error) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case r := <-m.out:
				js, err := json.Marshal(r)
				if err != nil {
					log.Printf("bot.MQTT marshaling reply: %s", err)
					continue
				}
				token := m.client.Publish(m.cfg.PubTopic, 0, false, js)
				token.Wait()
				if token.Error() != nil {
					log.Printf("bot.MQTT publish: %s", token.Error())
				}
			}
		}
	}()

	return m.in, m.out, nil
}

// Stop disconnects from the broker.
func (m *MQTT) Stop(ctx context.Context) error {
	quiesce := m.cfg.QuiesceMS
	if quiesce == 0 {
		quiesce = 100
	}
	m.client.Disconnect(quiesce)
	return nil
}
