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
)

// Couplings provide channels for message input and reply output.
//
// An implementation couples the bot to a chat transport: stdin and
// stdout, a WebSocket endpoint, an MQTT broker.
type Couplings interface {
	// Start initializes the Couplings.
	Start(context.Context) error

	// IO returns the inbound and outbound channels.  The
	// implementation closes the inbound channel when the
	// transport ends.
	IO(context.Context) (chan *Message, chan *Reply, error)

	// Stop shuts down the Couplings.
	Stop(context.Context) error
}
