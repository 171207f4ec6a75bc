// Copyright (C) 2019-2026 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

package network

import (
	"context"
	"time"

	"github.com/xrpl-synth/synthpeer/protocol"
)

// Step is one exchange of a Script: its messages are sent, then a single
// message of type Expect must arrive and satisfy Match.
type Step struct {
	Name string
	Send []protocol.Message
	// Expect is the type of the next message; UnknownMessageType expects
	// nothing.
	Expect protocol.MessageType
	Match  func(protocol.Payload) error
	// Timeout bounds the wait for the expected message.
	Timeout time.Duration
}

// Script is an ordered expected interaction.
type Script struct {
	Name  string
	Steps []Step
	// Ignore lists types skipped while waiting, e.g. unsolicited gossip.
	Ignore []protocol.MessageType
}

func (sc Script) ignores(t protocol.MessageType) bool {
	for _, it := range sc.Ignore {
		if it == t {
			return true
		}
	}
	return false
}

// RunScript interprets script on the session. Ping requests are answered and
// skipped unless a step waits for an unmatched ping. A message that does not
// fit the current step closes the session and is reported as a
// *ProtocolViolation.
func (s *Session) RunScript(ctx context.Context, script Script) error {
	for i, step := range script.Steps {
		for _, m := range step.Send {
			if err := s.Send(m); err != nil {
				return err
			}
		}
		if step.Expect == protocol.UnknownMessageType {
			continue
		}
		if err := s.expect(ctx, script, i); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) expect(ctx context.Context, script Script, i int) error {
	step := script.Steps[i]
	if step.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, step.Timeout)
		defer cancel()
	}
	for {
		msg, err := s.Recv(ctx)
		if err != nil {
			return err
		}
		if msg.Type == protocol.PingType && !(step.Expect == protocol.PingType && step.Match == nil) {
			if replies := AnswerPing(s, msg); len(replies) > 0 {
				if err := s.Send(replies[0]); err != nil {
					return err
				}
				continue
			}
		}
		if msg.Type != step.Expect && script.ignores(msg.Type) {
			continue
		}
		v := &ProtocolViolation{Script: script.Name, Step: i, Expected: step.Expect, Got: msg.Type}
		if msg.Type != step.Expect {
			return s.violate(v)
		}
		if step.Match == nil {
			return nil
		}
		p, err := msg.Decode()
		if err == nil {
			err = step.Match(p)
		}
		if err != nil {
			v.Reason = err.Error()
			return s.violate(v)
		}
		return nil
	}
}

func (s *Session) violate(v *ProtocolViolation) error {
	v.LastState = s.State()
	s.shutdown(v)
	<-s.done
	return v
}
