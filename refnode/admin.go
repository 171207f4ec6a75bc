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

package refnode

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/xrpl-synth/synthpeer/nodectl"
)

func (n *Node) startAdmin() error {
	listener, err := net.Listen("tcp", n.cfg.AdminAddr)
	if err != nil {
		return err
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(makeLoggerMiddleware(n.log))
	e.POST("/", n.handleAdmin)

	n.admin = e
	n.adminListener = listener
	n.adminServer = &http.Server{Handler: e, ReadHeaderTimeout: 10 * time.Second}
	n.adminDone = make(chan struct{})
	go func() {
		defer close(n.adminDone)
		if err := n.adminServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			n.log.Errorf("admin endpoint stopped: %v", err)
		}
	}()
	n.log.Infof("admin endpoint listening on %s", listener.Addr())
	return nil
}

func success(fields map[string]interface{}) map[string]interface{} {
	fields["status"] = "success"
	return map[string]interface{}{"result": fields}
}

func failure(code, message string) map[string]interface{} {
	return map[string]interface{}{"result": map[string]interface{}{
		"status":        "error",
		"error":         code,
		"error_message": message,
	}}
}

func (n *Node) handleAdmin(c echo.Context) error {
	var req nodectl.Request
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return c.String(http.StatusBadRequest, "Unable to parse request: "+err.Error())
	}
	switch req.Method {
	case "peers":
		return c.JSON(http.StatusOK, success(map[string]interface{}{"peers": n.peerList()}))
	case "server_info":
		return c.JSON(http.StatusOK, success(map[string]interface{}{"info": n.serverInfo()}))
	case "connect":
		var p nodectl.ConnectParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params[0], &p); err != nil {
				return c.JSON(http.StatusOK, failure("invalidParams", "Invalid parameters."))
			}
		}
		if p.IP == "" {
			return c.JSON(http.StatusOK, failure("invalidParams", "Missing field 'ip'."))
		}
		if p.Port == 0 {
			p.Port = 51235
		}
		n.connect(net.JoinHostPort(p.IP, strconv.Itoa(p.Port)))
		return c.JSON(http.StatusOK, success(map[string]interface{}{"message": "connecting"}))
	case "ledger":
		var p nodectl.LedgerParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params[0], &p); err != nil {
				return c.JSON(http.StatusOK, failure("invalidParams", "Invalid parameters."))
			}
		}
		// the node never has an open ledger, only the closed one
		switch p.LedgerIndex {
		case "", "closed", "validated", strconv.FormatUint(uint64(n.ledger.seq), 10):
		default:
			return c.JSON(http.StatusOK, failure("lgrNotFound", "ledgerNotFound"))
		}
		return c.JSON(http.StatusOK, success(n.ledgerInfo(p.Accounts)))
	}
	return c.JSON(http.StatusOK, failure("unknownCmd", "Unknown method."))
}

func (n *Node) peerList() []nodectl.Peer {
	sessions := n.peer.Sessions()
	out := make([]nodectl.Peer, 0, len(sessions))
	for _, s := range sessions {
		id := s.Identity()
		out = append(out, nodectl.Peer{
			Address:   s.RemoteAddr(),
			PublicKey: id.PublicKey.String(),
			Inbound:   !s.Outgoing(),
			Version:   id.UserAgent,
		})
	}
	return out
}

func (n *Node) serverInfo() nodectl.ServerInfo {
	return nodectl.ServerInfo{
		BuildVersion: Version,
		PubkeyNode:   n.peer.PublicKey().String(),
		Peers:        n.peer.NumPeers(),
		ServerState:  "full",
	}
}

// ledgerInfo describes the closed ledger, which is also the validated one.
func (n *Node) ledgerInfo(accounts bool) map[string]interface{} {
	hash := strings.ToUpper(hex.EncodeToString(n.ledger.hash[:]))
	info := nodectl.LedgerInfo{LedgerHash: hash, LedgerIndex: strconv.FormatUint(uint64(n.ledger.seq), 10)}
	if accounts {
		for _, key := range n.ledger.stateKeys {
			info.AccountState = append(info.AccountState, strings.ToUpper(hex.EncodeToString(key[:])))
		}
	}
	return map[string]interface{}{
		"ledger":       info,
		"ledger_hash":  hash,
		"ledger_index": n.ledger.seq,
		"validated":    true,
	}
}

// connect dials address in the background, as the real command only queues
// the attempt.
func (n *Node) connect(address string) {
	n.dialing.Add(1)
	go func() {
		defer n.dialing.Done()
		ctx, cancel := context.WithTimeout(n.ctx, n.cfg.ConnectTimeout)
		defer cancel()
		if _, err := n.peer.Connect(ctx, address); err != nil {
			n.log.Infof("connect to %s failed: %v", address, err)
		}
	}()
}
