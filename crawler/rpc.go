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

package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/DataDog/zstd"
	"github.com/gorilla/mux"

	"github.com/xrpl-synth/synthpeer/logging"
	"github.com/xrpl-synth/synthpeer/util/metrics"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// maxRequestSize bounds a request body.
const maxRequestSize = 1 << 20

// SnapshotSource yields the metrics the RPC server reports.
type SnapshotSource interface {
	Snapshot() MetricsSnapshot
}

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// RPCError is a JSON-RPC error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string { return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message) }

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// DumpSummary is the result of dumpmetrics.
type DumpSummary struct {
	// Status is "success" or "fail".
	Status string `json:"status"`
	// Length is the number of bytes written, or -1.
	Length  int    `json:"length"`
	Message string `json:"message"`
}

type dumpParams struct {
	File string `json:"file"`
}

// RPCServer serves getmetrics and dumpmetrics over JSON-RPC, plus the
// Prometheus registry on /metrics.
type RPCServer struct {
	source   SnapshotSource
	log      logging.Logger
	listener net.Listener
	server   *http.Server
	done     chan struct{}
}

// StartRPCServer binds addr and serves in the background. A bind failure is
// a FatalSetupError.
func StartRPCServer(addr string, source SnapshotSource, reg *metrics.Registry, log logging.Logger) (*RPCServer, error) {
	if log == nil {
		log = logging.Base()
	}
	if reg == nil {
		reg = metrics.DefaultRegistry()
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, &FatalSetupError{Op: "bind rpc " + addr, Err: err}
	}
	s := &RPCServer{source: source, log: log, listener: listener, done: make(chan struct{})}

	router := mux.NewRouter()
	router.Use(s.recoverPanics)
	router.HandleFunc("/", s.serveRPC).Methods(http.MethodPost)
	router.Handle("/metrics", reg.Handler()).Methods(http.MethodGet)
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusMethodNotAllowed, &RPCError{Code: CodeInvalidRequest, Message: r.Method + " not allowed on " + r.URL.Path})
	})
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusNotFound, &RPCError{Code: CodeMethodNotFound, Message: "no endpoint at " + r.URL.Path})
	})
	s.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		defer close(s.done)
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("rpc server stopped: %v", err)
		}
	}()
	log.Infof("rpc server listening on %s", listener.Addr())
	return s, nil
}

// Addr returns the bound address.
func (s *RPCServer) Addr() string { return s.listener.Addr().String() }

// Shutdown stops accepting requests and waits for active ones.
func (s *RPCServer) Shutdown(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	<-s.done
	return err
}

func (s *RPCServer) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Errorf("rpc handler panic: %v", rec)
				writeResponse(w, rpcResponse{Error: &RPCError{Code: CodeInternalError, Message: "internal error"}, ID: json.RawMessage("null")})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeResponse(w http.ResponseWriter, resp rpcResponse) {
	writeResponseStatus(w, http.StatusOK, resp)
}

// writeStatus answers a request that never reached the JSON-RPC handler.
func writeStatus(w http.ResponseWriter, status int, rerr *RPCError) {
	writeResponseStatus(w, status, rpcResponse{Error: rerr})
}

func writeResponseStatus(w http.ResponseWriter, status int, resp rpcResponse) {
	resp.JSONRPC = "2.0"
	if len(resp.ID) == 0 {
		resp.ID = json.RawMessage("null")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

func (s *RPCServer) serveRPC(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestSize))
	if err := dec.Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			writeResponse(w, rpcResponse{Error: &RPCError{Code: CodeInvalidRequest, Message: "invalid request"}})
			return
		}
		writeResponse(w, rpcResponse{Error: &RPCError{Code: CodeParseError, Message: "parse error: " + err.Error()}})
		return
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		writeResponse(w, rpcResponse{Error: &RPCError{Code: CodeInvalidRequest, Message: "invalid request"}, ID: req.ID})
		return
	}
	result, rerr := s.call(req.Method, req.Params)
	if rerr != nil {
		writeResponse(w, rpcResponse{Error: rerr, ID: req.ID})
		return
	}
	writeResponse(w, rpcResponse{Result: result, ID: req.ID})
}

func (s *RPCServer) call(method string, params json.RawMessage) (interface{}, *RPCError) {
	switch method {
	case "getmetrics":
		return s.source.Snapshot(), nil
	case "dumpmetrics":
		p, err := parseDumpParams(params)
		if err != nil {
			return nil, &RPCError{Code: CodeInvalidParams, Message: err.Error()}
		}
		return s.dump(p), nil
	}
	return nil, &RPCError{Code: CodeMethodNotFound, Message: "method not found: " + method}
}

// parseDumpParams accepts {"file": path} or [path]; absent params yield an
// empty file.
func parseDumpParams(raw json.RawMessage) (dumpParams, error) {
	var p dumpParams
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return p, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var list []string
		if err := json.Unmarshal(raw, &list); err != nil {
			return p, fmt.Errorf("invalid params: %v", err)
		}
		if len(list) > 0 {
			p.File = list[0]
		}
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("invalid params: %v", err)
	}
	return p, nil
}

// dump writes the snapshot wrapped in a JSON-RPC response envelope,
// compressed with zstd when the path ends in .zst.
func (s *RPCServer) dump(p dumpParams) DumpSummary {
	if p.File == "" {
		return DumpSummary{Status: "fail", Length: -1, Message: "No file parameter in params"}
	}
	content, err := json.Marshal(s.source.Snapshot())
	if err != nil {
		return DumpSummary{Status: "fail", Length: -1, Message: "Unable to encode metrics: " + err.Error()}
	}
	envelope := make([]byte, 0, len(content)+32)
	envelope = append(envelope, `{"jsonrpc":"2.0","result":`...)
	envelope = append(envelope, content...)
	envelope = append(envelope, `,"id":0}`...)
	if strings.HasSuffix(p.File, ".zst") {
		envelope, err = zstd.Compress(nil, envelope)
		if err != nil {
			return DumpSummary{Status: "fail", Length: -1, Message: "Unable to compress: " + err.Error()}
		}
	}
	if err := os.WriteFile(p.File, envelope, 0o644); err != nil {
		s.log.Warnf("unable to write metrics dump: %v", err)
		return DumpSummary{Status: "fail", Length: -1, Message: "Unable to write file: " + err.Error()}
	}
	return DumpSummary{Status: "success", Length: len(envelope)}
}
