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

package loaddriver

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
)

func ms(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10)
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetRowLine(true)
	return table
}

// WritePingTable renders one row per ping load run.
func WritePingTable(w io.Writer, reports []PingReport) {
	table := newTable(w, []string{"peers", "requests", "min (ms)", "max (ms)", "std dev (ms)",
		"10% (ms)", "50% (ms)", "75% (ms)", "90% (ms)", "99% (ms)", "completion %", "time (s)", "requests/s"})
	for _, r := range reports {
		st := r.Stats
		perPeer := 0
		if st.Peers > 0 {
			perPeer = st.Requested / st.Peers
		}
		table.Append([]string{
			strconv.Itoa(st.Peers),
			strconv.Itoa(perPeer),
			ms(st.Min), ms(st.Max), ms(st.StdDev),
			ms(st.P10), ms(st.P50), ms(st.P75), ms(st.P90), ms(st.P99),
			fmt.Sprintf("%.2f", st.Completion()),
			fmt.Sprintf("%.2f", st.Elapsed.Seconds()),
			fmt.Sprintf("%.2f", st.Throughput()),
		})
	}
	table.Render()
}

// WriteConnectionTable renders one row per connection load run.
func WriteConnectionTable(w io.Writer, reports []ConnectionReport) {
	table := newTable(w, []string{"max peers", "peers", "accepted", "rejected", "terminated", "error", "timed out", "time (s)"})
	for _, r := range reports {
		table.Append([]string{
			strconv.Itoa(r.MaxPeers),
			strconv.Itoa(r.Peers),
			strconv.Itoa(r.Accepted),
			strconv.Itoa(r.Rejected),
			strconv.Itoa(r.Terminated),
			strconv.Itoa(r.Errors),
			strconv.Itoa(r.TimedOut),
			fmt.Sprintf("%.2f", r.Elapsed.Seconds()),
		})
	}
	table.Render()
}
