// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"fmt"

	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/pkg/ux"
)

// Render prints s on p. Machine output is one tab-separated record per
// collection and per run key:
//
//	collection <short> <documents>
//	run <short> <key> <total> <complete> <outstanding> <error>
func Render(p *ux.Printer, s *Summary) {
	if p.Machine() {
		for _, c := range s.Collections {
			p.Record("collection", c.ShortName, c.Documents)
			for _, r := range c.Runs {
				p.Record("run", c.ShortName, r.RunKey, r.Total, r.Complete, r.Outstanding, r.Error)
			}
		}
		return
	}

	p.Title("Run Catalog")
	if len(s.Collections) == 0 {
		p.Muted("no collections")
		return
	}
	for _, c := range s.Collections {
		header := fmt.Sprintf("%s  %s", ux.Styles.Highlight.Render(c.ShortName),
			ux.Styles.Muted.Render(fmt.Sprintf("%d documents", c.Documents)))
		if c.LongName != "" {
			header += "  " + ux.Styles.Subtitle.Render(c.LongName)
		}
		p.Info(header)

		if len(c.Runs) == 0 {
			p.Muted("    no run keys")
			continue
		}
		for _, r := range c.Runs {
			line := fmt.Sprintf("  %s %-24s total %d  complete %d  outstanding %d",
				ux.IconBullet, r.RunKey, r.Total, r.Complete, r.Outstanding)
			if r.Error > 0 {
				line += "  " + ux.Styles.Error.Render(fmt.Sprintf("error %d", r.Error))
			}
			p.Info(line + "  " + p.ProgressBar(r.Complete, r.Total, 20))
		}
	}
}
