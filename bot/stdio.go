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
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Stdio is a simple Couplings that reads messages from stdin and
// writes replies to stdout.
//
// An input line that parses as JSON becomes a Message directly;
// anything else becomes the Content of a message from a default
// user.
type Stdio struct {
	// In is the message input.
	In io.Reader

	// Out is the reply output.
	Out io.Writer

	// DefaultUser and DefaultChannel stamp plain-text input
	// lines.
	DefaultUser    string
	DefaultChannel string

	// Timestamps prepends a timestamp to each output line.
	Timestamps bool

	// EchoInput writes input lines (prepended with "input") to
	// the output.
	EchoInput bool

	// InputEOF is closed on EOF from the input.
	InputEOF chan bool

	in  chan *Message
	out chan *Reply
	wg  sync.WaitGroup
}

func NewStdio() *Stdio {
	return &Stdio{
		In:             os.Stdin,
		Out:            os.Stdout,
		DefaultUser:    "console",
		DefaultChannel: "console",
		InputEOF:       make(chan bool),
		in:             make(chan *Message),
		out:            make(chan *Reply),
	}
}

// Start does nothing.
func (s *Stdio) Start(ctx context.Context) error {
	return nil
}

// IO launches the read and write loops.
func (s *Stdio) IO(ctx context.Context) (chan *Message, chan *Reply, error) {
	s.wg.Add(2)

	go func() {
		defer s.wg.Done()
		defer close(s.in)
		sc := bufio.NewScanner(s.In)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			if s.EchoInput {
				s.emit("input " + line)
			}
			msg := s.parse(line)
			select {
			case <-ctx.Done():
				return
			case s.in <- msg:
			}
		}
		close(s.InputEOF)
	}()

	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case r := <-s.out:
				s.emit(r.Content)
			}
		}
	}()

	return s.in, s.out, nil
}

func (s *Stdio) parse(line string) *Message {
	msg := &Message{}
	if strings.HasPrefix(line, "{") {
		if err := json.Unmarshal([]byte(line), msg); err == nil {
			if msg.UserId == "" {
				msg.UserId = s.DefaultUser
			}
			if msg.ChannelId == "" {
				msg.ChannelId = s.DefaultChannel
			}
			msg.ReceivedAt = time.Now()
			return msg
		}
	}
	return &Message{
		EventType:  "message",
		UserId:     s.DefaultUser,
		ChannelId:  s.DefaultChannel,
		Content:    line,
		ReceivedAt: time.Now(),
	}
}

func (s *Stdio) emit(line string) {
	if s.Timestamps {
		line = time.Now().UTC().Format(time.RFC3339Nano) + " " + line
	}
	fmt.Fprintln(s.Out, line)
}

// Stop waits for IO to wind down.
func (s *Stdio) Stop(ctx context.Context) error {
	done := make(chan bool)
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
	case <-done:
	}
	return nil
}
