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
	"time"

	"github.com/algorand/go-deadlock"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/xrpl-synth/synthpeer/util/metrics"
)

// Status is the crawl state of one address.
type Status int

const (
	// Pending addresses wait for a worker.
	Pending Status = iota
	// InFlight addresses are being visited.
	InFlight
	// Done addresses were visited, successfully or not.
	Done
)

var statusNames = [...]string{"pending", "in_flight", "done"}

func (s Status) String() string { return statusNames[s] }

// CrawlNode is everything learned about one address.
type CrawlNode struct {
	Address       string
	Status        Status
	PublicKey     string
	DiscoveredAt  time.Time
	VisitedAt     time.Time
	Neighbors     mapset.Set[string]
	UserAgent     string
	HandshakeTime time.Duration
	Attempts      int
	// Failure is empty after a successful visit.
	Failure string
}

// Good reports whether the node was reached and its latest visit did not
// fail.
func (n *CrawlNode) Good() bool {
	return !n.VisitedAt.IsZero() && n.Failure == ""
}

// Visit is the outcome of visiting one address.
type Visit struct {
	PublicKey     string
	UserAgent     string
	HandshakeTime time.Duration
	Neighbors     []string
	Attempts      int
	Err           error
}

// connection is an undirected edge, stored with the smaller address first.
type connection struct {
	a, b string
}

func makeConnection(a, b string) connection {
	if b < a {
		a, b = b, a
	}
	return connection{a: a, b: b}
}

// Frontier is the crawl state shared by all workers. Every address appears
// at most once; all access goes through one mutex.
type Frontier struct {
	mu          deadlock.Mutex
	nodes       map[string]*CrawlNode
	pending     []string
	inFlight    int
	connections mapset.Set[connection]
	started     time.Time
	now         func() time.Time

	// changed is signalled whenever work may have become available or the
	// crawl may have finished.
	changed chan struct{}

	visited  *metrics.Counter
	failures *metrics.Counter
	entries  *metrics.Gauge
}

// MakeFrontier returns an empty frontier reporting to reg.
func MakeFrontier(reg *metrics.Registry) *Frontier {
	return &Frontier{
		nodes:       make(map[string]*CrawlNode),
		connections: mapset.NewThreadUnsafeSet[connection](),
		started:     time.Now(),
		now:         time.Now,
		changed:     make(chan struct{}, 1),
		visited:     metrics.MakeCounter(reg, metrics.CrawlerNodesVisited),
		failures:    metrics.MakeCounter(reg, metrics.CrawlerDialFailures),
		entries:     metrics.MakeGauge(reg, metrics.CrawlerFrontierSize, "status"),
	}
}

func (f *Frontier) notify() {
	select {
	case f.changed <- struct{}{}:
	default:
	}
}

// Changed returns a channel that receives after frontier mutations.
func (f *Frontier) Changed() <-chan struct{} { return f.changed }

// Add enqueues address as Pending unless it is already known.
func (f *Frontier) Add(address string) bool {
	f.mu.Lock()
	added := f.addLocked(address)
	f.updateGaugesLocked()
	f.mu.Unlock()
	if added {
		f.notify()
	}
	return added
}

func (f *Frontier) addLocked(address string) bool {
	if _, ok := f.nodes[address]; ok {
		return false
	}
	f.nodes[address] = &CrawlNode{
		Address:      address,
		Status:       Pending,
		DiscoveredAt: f.now(),
		Neighbors:    mapset.NewThreadUnsafeSet[string](),
	}
	f.pending = append(f.pending, address)
	return true
}

// Next moves the oldest Pending address to InFlight.
func (f *Frontier) Next() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pending) == 0 {
		return "", false
	}
	address := f.pending[0]
	f.pending = f.pending[1:]
	f.nodes[address].Status = InFlight
	f.inFlight++
	f.updateGaugesLocked()
	return address, true
}

// Complete marks an InFlight address Done with the visit outcome and
// enqueues its previously unseen neighbors.
func (f *Frontier) Complete(address string, v Visit) {
	f.mu.Lock()
	n, ok := f.nodes[address]
	if !ok || n.Status != InFlight {
		f.mu.Unlock()
		return
	}
	n.Status = Done
	f.inFlight--
	n.Attempts += v.Attempts
	f.visited.Inc(nil)
	if v.Err != nil {
		n.Failure = v.Err.Error()
		f.failures.Inc(nil)
	} else {
		n.Failure = ""
		n.VisitedAt = f.now()
		n.PublicKey = v.PublicKey
		n.UserAgent = v.UserAgent
		n.HandshakeTime = v.HandshakeTime
		for _, peer := range v.Neighbors {
			if peer == address {
				continue
			}
			n.Neighbors.Add(peer)
			f.connections.Add(makeConnection(address, peer))
			f.addLocked(peer)
		}
	}
	f.updateGaugesLocked()
	f.mu.Unlock()
	f.notify()
}

// Release returns an InFlight address to Pending without recording a visit,
// for visits cut short by shutdown.
func (f *Frontier) Release(address string) {
	f.mu.Lock()
	n, ok := f.nodes[address]
	if !ok || n.Status != InFlight {
		f.mu.Unlock()
		return
	}
	n.Status = Pending
	f.inFlight--
	f.pending = append(f.pending, address)
	f.updateGaugesLocked()
	f.mu.Unlock()
	f.notify()
}

// Requeue moves every Done address back to Pending for another pass.
func (f *Frontier) Requeue() int {
	f.mu.Lock()
	count := 0
	for address, n := range f.nodes {
		if n.Status == Done {
			n.Status = Pending
			f.pending = append(f.pending, address)
			count++
		}
	}
	f.updateGaugesLocked()
	f.mu.Unlock()
	if count > 0 {
		f.notify()
	}
	return count
}

// Finished reports whether nothing is Pending or InFlight.
func (f *Frontier) Finished() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending) == 0 && f.inFlight == 0
}

// Counts returns the number of addresses per status.
func (f *Frontier) Counts() map[Status]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.countsLocked()
}

func (f *Frontier) countsLocked() map[Status]int {
	done := len(f.nodes) - len(f.pending) - f.inFlight
	return map[Status]int{Pending: len(f.pending), InFlight: f.inFlight, Done: done}
}

func (f *Frontier) updateGaugesLocked() {
	for status, count := range f.countsLocked() {
		f.entries.Set(float64(count), map[string]string{"status": status.String()})
	}
}

// Node returns a copy of the entry for address.
func (f *Frontier) Node(address string) (CrawlNode, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.nodes[address]
	if !ok {
		return CrawlNode{}, false
	}
	return n.clone(), true
}

func (n *CrawlNode) clone() CrawlNode {
	c := *n
	c.Neighbors = n.Neighbors.Clone()
	return c
}
