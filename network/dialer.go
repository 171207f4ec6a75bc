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
	"net"
	"time"

	"golang.org/x/time/rate"
)

// Dialer establishes tcp-level connections, optionally paced by a rate
// limiter shared between callers.
type Dialer struct {
	inner   *net.Dialer
	limiter *rate.Limiter
}

// MakeDialer creates a dialer. A nil limiter dials without pacing.
func MakeDialer(limiter *rate.Limiter) *Dialer {
	return &Dialer{
		inner: &net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		},
		limiter: limiter,
	}
}

// DialContext connects to the address on the named network, waiting for the
// limiter first.
func (d *Dialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return d.inner.DialContext(ctx, network, address)
}
