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
	"errors"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"

	"github.com/xrpl-synth/synthpeer/test/partitiontest"
)

// startTestResolver serves fixed records for seed.test. and NXDOMAIN for
// everything else.
func startTestResolver(t *testing.T) *Resolver {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	records := map[uint16][]string{
		dns.TypeA:    {"seed.test. 60 IN A 127.0.0.2", "seed.test. 60 IN A 127.0.0.3"},
		dns.TypeAAAA: {"seed.test. 60 IN AAAA ::1"},
	}
	handler := dns.HandlerFunc(func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)
		q := r.Question[0]
		if q.Name != "seed.test." {
			m.SetRcode(r, dns.RcodeNameError)
			w.WriteMsg(m)
			return
		}
		for _, text := range records[q.Qtype] {
			rr, err := dns.NewRR(text)
			if err == nil {
				m.Answer = append(m.Answer, rr)
			}
		}
		w.WriteMsg(m)
	})

	started := make(chan struct{})
	srv := &dns.Server{PacketConn: pc, Handler: handler, NotifyStartedFunc: func() { close(started) }}
	go srv.ActivateAndServe()
	<-started
	t.Cleanup(func() { srv.Shutdown() })
	return &Resolver{Servers: []string{pc.LocalAddr().String()}, Timeout: 2 * time.Second}
}

func TestResolveSeeds(t *testing.T) {
	partitiontest.PartitionTest(t)

	r := startTestResolver(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	got, err := ResolveSeeds(ctx, r, []string{"seed.test:6000", "10.1.1.1", "[2001:db8::1]:7000", "127.0.0.2:6000"})
	require.NoError(t, err)
	require.Equal(t, []string{
		"127.0.0.2:6000",
		"127.0.0.3:6000",
		"[::1]:6000",
		"10.1.1.1:51235",
		"[2001:db8::1]:7000",
	}, got)

	got, err = ResolveSeeds(ctx, r, []string{"seed.test"})
	require.NoError(t, err)
	require.Contains(t, got, "127.0.0.2:51235")
}

func TestResolveSeedsFallsBackToSystem(t *testing.T) {
	partitiontest.PartitionTest(t)

	// the nameserver answers NXDOMAIN for localhost
	r := startTestResolver(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	got, err := ResolveSeeds(ctx, r, []string{"localhost:6000"})
	require.NoError(t, err)
	require.NotEmpty(t, got)
	for _, addr := range got {
		host, port, err := net.SplitHostPort(addr)
		require.NoError(t, err)
		require.Equal(t, "6000", port)
		require.True(t, net.ParseIP(host).IsLoopback(), addr)
	}

	var asked []string
	r.System = func(_ context.Context, host string) ([]net.IPAddr, error) {
		asked = append(asked, host)
		return []net.IPAddr{{IP: net.ParseIP("192.0.2.7")}}, nil
	}
	got, err = ResolveSeeds(ctx, r, []string{"hosts-only.test", "seed.test"})
	require.NoError(t, err)
	require.Equal(t, []string{"192.0.2.7:51235", "127.0.0.2:51235", "127.0.0.3:51235", "[::1]:51235"}, got)
	// names the nameserver knows never reach the system resolver
	require.Equal(t, []string{"hosts-only.test"}, asked)
}

func TestResolveSeedsFatal(t *testing.T) {
	partitiontest.PartitionTest(t)

	r := startTestResolver(t)
	r.System = func(context.Context, string) ([]net.IPAddr, error) { return nil, errors.New("no such host") }
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, seeds := range [][]string{{"missing.test"}, {":51235"}, nil} {
		_, err := ResolveSeeds(ctx, r, seeds)
		var fatal *FatalSetupError
		require.ErrorAs(t, err, &fatal, "seeds %v", seeds)
	}
}
