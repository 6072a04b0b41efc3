// Social Dashboard - Multi-Platform Chat Ingestion and Live Feed
// Copyright 2026 Mario Paraschiv (marioparaschiv)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marioparaschiv/social-dashboard

package gateway

import (
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// Opcode is a gateway frame opcode.
type Opcode int

const (
	OpDispatch       Opcode = 0
	OpHeartbeat      Opcode = 1
	OpIdentify       Opcode = 2
	OpResume         Opcode = 6
	OpReconnect      Opcode = 7
	OpInvalidSession Opcode = 9
	OpHello          Opcode = 10
	OpHeartbeatAck   Opcode = 11
)

func (op Opcode) String() string {
	switch op {
	case OpDispatch:
		return "dispatch"
	case OpHeartbeat:
		return "heartbeat"
	case OpIdentify:
		return "identify"
	case OpResume:
		return "resume"
	case OpReconnect:
		return "reconnect"
	case OpInvalidSession:
		return "invalid_session"
	case OpHello:
		return "hello"
	case OpHeartbeatAck:
		return "heartbeat_ack"
	default:
		return "op_" + strconv.Itoa(int(op))
	}
}

// Close codes with special handling.
const (
	CloseNormal               = 1000
	CloseAbnormal             = 1006
	CloseAuthenticationFailed = 4004
	CloseInternalReconnect    = 4444
)

// Frame is the gateway wire envelope.
type Frame struct {
	Op Opcode          `json:"op"`
	D  json.RawMessage `json:"d"`
	S  *int64          `json:"s,omitempty"`
	T  string          `json:"t,omitempty"`
}

// inboundEvent is the closed set of decoded inbound frames.
type inboundEvent interface {
	inbound()
}

type helloEvent struct {
	interval time.Duration
}

type heartbeatAckEvent struct{}

// heartbeatRequestEvent is a server-initiated heartbeat request.
type heartbeatRequestEvent struct{}

type invalidSessionEvent struct {
	resumable bool
}

type reconnectEvent struct{}

type dispatchEvent struct {
	name string
	data json.RawMessage
}

type unknownEvent struct {
	op Opcode
}

func (helloEvent) inbound()            {}
func (heartbeatAckEvent) inbound()     {}
func (heartbeatRequestEvent) inbound() {}
func (invalidSessionEvent) inbound()   {}
func (reconnectEvent) inbound()        {}
func (dispatchEvent) inbound()         {}
func (unknownEvent) inbound()          {}

// decodeFrame parses one inbound frame. seq is the frame's sequence number, or 0
// when the frame carries none.
func decodeFrame(data []byte) (inboundEvent, int64, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, 0, fmt.Errorf("decode frame: %w", err)
	}

	var seq int64
	if f.S != nil {
		seq = *f.S
	}

	switch f.Op {
	case OpHello:
		var h hello
		if err := json.Unmarshal(f.D, &h); err != nil {
			return nil, seq, fmt.Errorf("decode hello: %w", err)
		}
		if h.HeartbeatInterval <= 0 {
			return nil, seq, fmt.Errorf("decode hello: invalid heartbeat interval %d", h.HeartbeatInterval)
		}
		return helloEvent{interval: time.Duration(h.HeartbeatInterval) * time.Millisecond}, seq, nil
	case OpHeartbeatAck:
		return heartbeatAckEvent{}, seq, nil
	case OpHeartbeat:
		return heartbeatRequestEvent{}, seq, nil
	case OpInvalidSession:
		var resumable bool
		if len(f.D) > 0 {
			// A malformed flag is treated as non-resumable.
			_ = json.Unmarshal(f.D, &resumable)
		}
		return invalidSessionEvent{resumable: resumable}, seq, nil
	case OpReconnect:
		return reconnectEvent{}, seq, nil
	case OpDispatch:
		return dispatchEvent{name: f.T, data: f.D}, seq, nil
	default:
		return unknownEvent{op: f.Op}, seq, nil
	}
}

type outboundFrame struct {
	Op Opcode      `json:"op"`
	D  interface{} `json:"d"`
}

type identifyPayload struct {
	Token      string                 `json:"token"`
	Properties map[string]interface{} `json:"properties"`
}

type resumePayload struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	Seq       int64  `json:"seq"`
}

func encodeFrame(op Opcode, d interface{}) ([]byte, error) {
	return json.Marshal(outboundFrame{Op: op, D: d})
}

// heartbeatPayload is the last sequence number, or null before the first dispatch.
func heartbeatPayload(seq int64) interface{} {
	if seq == 0 {
		return nil
	}
	return seq
}
