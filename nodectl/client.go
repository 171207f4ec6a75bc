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

// Package nodectl talks to the admin JSON-RPC of a node under test. Only the
// handful of methods the harness needs are wrapped: peers, server_info,
// ledger and connect.
package nodectl

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"
)

const maxResponseBytes = 10 << 20

// HTTPError is returned when the admin endpoint answers with a non-200
// status.
type HTTPError struct {
	StatusCode  int
	Status      string
	ErrorString string
}

func (e HTTPError) Error() string {
	return fmt.Sprintf("HTTP %s: %s", e.Status, e.ErrorString)
}

// RPCError is an error result reported by the node.
type RPCError struct {
	Method  string
	Code    string
	Message string
}

func (e *RPCError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s", e.Method, e.Code)
	}
	return fmt.Sprintf("%s: %s: %s", e.Method, e.Code, e.Message)
}

// Peer is one entry of the peers result.
type Peer struct {
	Address   string `json:"address"`
	PublicKey string `json:"public_key,omitempty"`
	Inbound   bool   `json:"inbound,omitempty"`
	Version   string `json:"version,omitempty"`
}

// ServerInfo is the subset of server_info the harness reads.
type ServerInfo struct {
	BuildVersion string `json:"build_version"`
	PubkeyNode   string `json:"pubkey_node"`
	Peers        int    `json:"peers"`
	ServerState  string `json:"server_state"`
}

// Request is the admin RPC request body: a method name and a single
// parameter object wrapped in a list.
type Request struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params,omitempty"`
}

// Response wraps every admin RPC result. Status is "success" or "error".
type Response struct {
	Result json.RawMessage `json:"result"`
}

type status struct {
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Client calls one node's admin endpoint.
type Client struct {
	url  string
	http *http.Client
}

// MakeClient returns a client for the admin endpoint at url, for example
// http://127.0.0.1:5005/.
func MakeClient(url string) *Client {
	return &Client{url: url, http: &http.Client{Timeout: 30 * time.Second}}
}

// filterASCII drops everything outside printable ASCII before node supplied
// text ends up in an error.
func filterASCII(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x20 && s[i] <= 0x7e {
			out = append(out, s[i])
		}
	}
	return string(out)
}

func (c *Client) call(ctx context.Context, method string, params interface{}, result interface{}) error {
	req := Request{Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return err
		}
		req.Params = []json.RawMessage{raw}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, ErrorString: filterASCII(string(data))}
	}

	var envelope Response
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("%s: decoding response: %w", method, err)
	}
	var st status
	if err := json.Unmarshal(envelope.Result, &st); err != nil {
		return fmt.Errorf("%s: decoding result: %w", method, err)
	}
	if st.Status != "success" {
		return &RPCError{Method: method, Code: filterASCII(st.Error), Message: filterASCII(st.ErrorMessage)}
	}
	if result == nil {
		return nil
	}
	return json.Unmarshal(envelope.Result, result)
}

// Peers lists the node's established peers.
func (c *Client) Peers(ctx context.Context) ([]Peer, error) {
	var res struct {
		Peers []Peer `json:"peers"`
	}
	if err := c.call(ctx, "peers", nil, &res); err != nil {
		return nil, err
	}
	return res.Peers, nil
}

// ServerInfo returns the node's identity and state.
func (c *Client) ServerInfo(ctx context.Context) (ServerInfo, error) {
	var res struct {
		Info ServerInfo `json:"info"`
	}
	err := c.call(ctx, "server_info", nil, &res)
	return res.Info, err
}

// LedgerParams selects a ledger. LedgerIndex is a sequence number or one of
// "validated", "closed" and "current".
type LedgerParams struct {
	LedgerIndex string `json:"ledger_index"`
	// Accounts asks for the keys of the ledger's state objects.
	Accounts bool `json:"accounts,omitempty"`
}

// LedgerInfo is the subset of a ledger result the harness reads.
type LedgerInfo struct {
	LedgerHash   string   `json:"ledger_hash"`
	LedgerIndex  string   `json:"ledger_index"`
	AccountState []string `json:"accountState,omitempty"`
}

// Hash decodes LedgerHash.
func (l LedgerInfo) Hash() ([]byte, error) {
	b, err := hex.DecodeString(l.LedgerHash)
	if err != nil {
		return nil, fmt.Errorf("ledger hash %q: %w", filterASCII(l.LedgerHash), err)
	}
	return b, nil
}

// Seq parses LedgerIndex, which the node renders as a decimal string.
func (l LedgerInfo) Seq() (uint32, error) {
	v, err := strconv.ParseUint(l.LedgerIndex, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("ledger index %q: %w", filterASCII(l.LedgerIndex), err)
	}
	return uint32(v), nil
}

// StateKeys decodes AccountState.
func (l LedgerInfo) StateKeys() ([][]byte, error) {
	out := make([][]byte, 0, len(l.AccountState))
	for _, k := range l.AccountState {
		b, err := hex.DecodeString(k)
		if err != nil {
			return nil, fmt.Errorf("state key %q: %w", filterASCII(k), err)
		}
		out = append(out, b)
	}
	return out, nil
}

// Ledger describes the ledger p selects.
func (c *Client) Ledger(ctx context.Context, p LedgerParams) (LedgerInfo, error) {
	var res struct {
		Ledger LedgerInfo `json:"ledger"`
	}
	err := c.call(ctx, "ledger", p, &res)
	return res.Ledger, err
}

// ConnectParams asks the node to dial a peer.
type ConnectParams struct {
	IP   string `json:"ip"`
	Port int    `json:"port,omitempty"`
}

// Connect asks the node to open an outbound connection to address. The call
// returns once the node has accepted the request, not once the connection is
// established.
func (c *Client) Connect(ctx context.Context, address string) error {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("connect %s: bad port: %w", address, err)
	}
	return c.call(ctx, "connect", ConnectParams{IP: host, Port: p}, nil)
}

// WaitForPeer polls Peers until one advertises publicKey or ctx is done.
func (c *Client) WaitForPeer(ctx context.Context, publicKey string, interval time.Duration) ([]Peer, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		peers, err := c.Peers(ctx)
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		for _, p := range peers {
			if p.PublicKey == publicKey {
				return peers, nil
			}
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return peers, ctx.Err()
		}
	}
}
