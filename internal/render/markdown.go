// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"strings"

	"github.com/pdiddy/research-pilot/pkg/types"
)

// Markdown renders the report as a Markdown document. The document carries
// exactly len(report.Sections)+2 top-level "## " headings: one Abstract, one
// per section, and one References block.
func Markdown(report *types.ResearchReport) []byte {
	var b strings.Builder

	b.WriteString("# " + report.Title + "\n\n")
	b.WriteString("**Topic:** " + report.Topic + "\n")
	b.WriteString("**Generated:** " + report.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC") + "\n")
	b.WriteString(fmt.Sprintf("**Number of Sources:** %d\n\n", len(report.Citations)))

	b.WriteString("## Abstract\n\n")
	b.WriteString(strings.TrimSpace(report.Summary) + "\n\n")

	if len(report.Sections) > 0 {
		b.WriteString("**Table of Contents**\n\n")
		for i, sec := range report.Sections {
			fmt.Fprintf(&b, "%d. [%s](#%s)\n", i+1, sec.Title, anchor(i+1, sec.Title))
			for j, sub := range sec.Subsections {
				fmt.Fprintf(&b, "    %c. [%s](#%d-%c-%s)\n", 'a'+j, sub.Title, i+1, 'a'+j, Slug(sub.Title))
			}
		}
		b.WriteString("\n")
	}

	for i, sec := range report.Sections {
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, sec.Title)
		writeSectionBody(&b, report, sec)
		for j, sub := range sec.Subsections {
			fmt.Fprintf(&b, "### %d.%c. %s\n\n", i+1, 'a'+j, sub.Title)
			writeSectionBody(&b, report, sub)
		}
	}

	b.WriteString("## References\n\n")
	for i, c := range report.Citations {
		fmt.Fprintf(&b, "%d. %s\n", i+1, citationEntry(c))
	}
	b.WriteString("\n")

	return []byte(b.String())
}

func writeSectionBody(b *strings.Builder, report *types.ResearchReport, sec types.ResearchSection) {
	if content := strings.TrimSpace(sec.Content); content != "" {
		b.WriteString(content + "\n\n")
	}
	if refs := backRefs(report, sec.Citations); refs != "" {
		b.WriteString(refs + "\n\n")
	}
}

// anchor builds a GitHub-style link target for a numbered heading.
func anchor(num int, title string) string {
	return fmt.Sprintf("%d-%s", num, Slug(title))
}
