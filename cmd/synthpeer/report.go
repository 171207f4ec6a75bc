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

package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/xrpl-synth/synthpeer/conformance"
	"github.com/xrpl-synth/synthpeer/fuzzing"
)

var (
	passColor = color.New(color.FgGreen)
	failColor = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow)
)

func statusColor(s conformance.Status) *color.Color {
	switch s {
	case conformance.Pass:
		return passColor
	case conformance.Timeout, conformance.Skipped:
		return warnColor
	}
	return failColor
}

func printConformance(w io.Writer, report conformance.Report, skipped []string) {
	for _, o := range report.Outcomes {
		statusColor(o.Status).Fprintf(w, "%-8s", strings.ToUpper(o.Status.String()))
		fmt.Fprintf(w, " %-40s %6dms", o.Scenario, o.Elapsed.Milliseconds())
		switch {
		case o.Status == conformance.Skipped:
			fmt.Fprintf(w, "  %s", o.Assertion)
		case !o.Passed():
			fmt.Fprintf(w, "  %s (session %s)", o.Assertion, o.LastState)
		}
		fmt.Fprintln(w)
	}
	for _, name := range skipped {
		warnColor.Fprintf(w, "%-8s", "SKIP")
		fmt.Fprintf(w, " %-40s no admin endpoint\n", name)
	}
	failures := len(report.Failures())
	c := passColor
	if failures > 0 {
		c = failColor
	}
	// scenarios that did not apply count as neither
	notApplicable := report.Count(conformance.Skipped)
	c.Fprintf(w, "%d/%d scenarios passed", report.Count(conformance.Pass), len(report.Outcomes)-notApplicable)
	if notApplicable > 0 {
		fmt.Fprintf(w, ", %d not applicable", notApplicable)
	}
	fmt.Fprintln(w)
}

func printFuzz(w io.Writer, report fuzzing.Report) {
	mode := "post-handshake"
	if report.PreHandshake {
		mode = "pre-handshake"
	}
	fmt.Fprintf(w, "seed %d, %s, %d candidates\n", report.Seed, mode, len(report.Results))

	counts := report.Counts()
	categories := make([]fuzzing.Category, 0, len(counts))
	for c := range counts {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
	for _, c := range categories {
		fmt.Fprintf(w, "  %-26s", c)
		for o := fuzzing.Disconnected; o <= fuzzing.Unreachable; o++ {
			fmt.Fprintf(w, " %s=%d", o, counts[c][o])
		}
		fmt.Fprintln(w)
	}

	failures := report.Failures()
	for _, r := range failures {
		failColor.Fprintf(w, "FAIL")
		fmt.Fprintf(w, " #%d %s size=%d outcome=%s recovered=%v", r.Index, r.Category, r.Size, r.Outcome, r.Recovered)
		if r.Err != nil {
			fmt.Fprintf(w, " err=%v", r.Err)
		}
		fmt.Fprintln(w)
	}
	if len(failures) == 0 {
		passColor.Fprintln(w, "every candidate handled")
	} else {
		failColor.Fprintf(w, "%d/%d candidates failed\n", len(failures), len(report.Results))
	}
}

func printVerdict(w io.Writer, what string, passed bool) {
	if passed {
		passColor.Fprintf(w, "%s: pass\n", what)
	} else {
		failColor.Fprintf(w, "%s: fail\n", what)
	}
}
