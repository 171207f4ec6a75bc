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
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/miekg/dns"
)

// DefaultPeerPort is assumed for seeds and endpoints without a port.
const DefaultPeerPort = 51235

// FatalSetupError stops the crawler before it starts: an unresolvable seed or
// an RPC address that cannot be bound.
type FatalSetupError struct {
	Op  string
	Err error
}

func (e *FatalSetupError) Error() string {
	return fmt.Sprintf("crawler setup: %s: %v", e.Op, e.Err)
}

func (e *FatalSetupError) Unwrap() error { return e.Err }

// Resolver looks up seed hostnames with A and AAAA queries. Names the
// nameservers do not know, such as localhost or /etc/hosts entries, go to
// the system resolver.
type Resolver struct {
	// Servers are host:port nameservers tried in order. Empty means the
	// servers in /etc/resolv.conf.
	Servers []string
	Timeout time.Duration
	// System is the fallback lookup; nil means net.DefaultResolver.
	System func(ctx context.Context, host string) ([]net.IPAddr, error)
}

func (r *Resolver) servers() ([]string, error) {
	if len(r.Servers) > 0 {
		return r.Servers, nil
	}
	conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(conf.Servers))
	for _, s := range conf.Servers {
		out = append(out, net.JoinHostPort(s, conf.Port))
	}
	return out, nil
}

// LookupHost returns the IPv4 and IPv6 addresses of host.
func (r *Resolver) LookupHost(ctx context.Context, host string) ([]net.IP, error) {
	ips, err := r.query(ctx, host)
	if err == nil {
		return ips, nil
	}
	system := r.System
	if system == nil {
		system = net.DefaultResolver.LookupIPAddr
	}
	addrs, sysErr := system(ctx, host)
	if sysErr != nil || len(addrs) == 0 {
		return nil, err
	}
	ips = make([]net.IP, 0, len(addrs))
	for _, a := range addrs {
		ips = append(ips, a.IP)
	}
	return ips, nil
}

func (r *Resolver) query(ctx context.Context, host string) ([]net.IP, error) {
	servers, err := r.servers()
	if err != nil {
		return nil, err
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := &dns.Client{Timeout: timeout}

	var ips []net.IP
	var lastErr error
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		msg := new(dns.Msg)
		msg.SetQuestion(dns.Fqdn(host), qtype)
		msg.RecursionDesired = true
		for _, server := range servers {
			resp, _, err := client.ExchangeContext(ctx, msg, server)
			if err != nil {
				lastErr = err
				continue
			}
			if resp.Rcode != dns.RcodeSuccess {
				lastErr = fmt.Errorf("%s lookup of %s: %s", dns.TypeToString[qtype], host, dns.RcodeToString[resp.Rcode])
				break
			}
			for _, rr := range resp.Answer {
				switch rec := rr.(type) {
				case *dns.A:
					ips = append(ips, rec.A)
				case *dns.AAAA:
					ips = append(ips, rec.AAAA)
				}
			}
			break
		}
	}
	if len(ips) == 0 {
		if lastErr == nil {
			lastErr = fmt.Errorf("no addresses for %s", host)
		}
		return nil, lastErr
	}
	return ips, nil
}

// ResolveSeeds turns seed host[:port] strings into dialable addresses. IP
// literals pass through; hostnames expand to every address they resolve
// to. Any seed that cannot be resolved is a FatalSetupError.
func ResolveSeeds(ctx context.Context, r *Resolver, seeds []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(addr string) {
		if !seen[addr] {
			seen[addr] = true
			out = append(out, addr)
		}
	}
	for _, seed := range seeds {
		host, port, err := net.SplitHostPort(seed)
		if err != nil {
			host, port = seed, strconv.Itoa(DefaultPeerPort)
		}
		if host == "" {
			return nil, &FatalSetupError{Op: "seed " + seed, Err: fmt.Errorf("missing host")}
		}
		if ip := net.ParseIP(host); ip != nil {
			add(net.JoinHostPort(ip.String(), port))
			continue
		}
		if r == nil {
			r = &Resolver{}
		}
		ips, err := r.LookupHost(ctx, host)
		if err != nil {
			return nil, &FatalSetupError{Op: "resolve seed " + seed, Err: err}
		}
		for _, ip := range ips {
			add(net.JoinHostPort(ip.String(), port))
		}
	}
	if len(out) == 0 {
		return nil, &FatalSetupError{Op: "seeds", Err: fmt.Errorf("no seed addresses")}
	}
	return out, nil
}
