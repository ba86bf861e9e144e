// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/jonathan/portfolio/internal/content"
	"github.com/jonathan/portfolio/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// PrintResume outputs an overview of what each page section will show.
func (p *Printer) PrintResume(resume *types.Resume) {
	if resume == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Name:     %s\n", resume.Basics.Name))
	sb.WriteString(fmt.Sprintf("Title:    %s\n", resume.Basics.Title))
	sb.WriteString(fmt.Sprintf("Location: %s\n", resume.Basics.Location))
	sb.WriteString("\n")

	featured := resume.FeaturedExperience()
	sb.WriteString(fmt.Sprintf("Experience: %d (%d featured)\n", len(resume.Experience), len(featured)))
	count := min(len(resume.Experience), maxItemsToShow)
	for i := 0; i < count; i++ {
		exp := resume.Experience[i]
		marker := "•"
		if exp.IsFeatured() {
			marker = "★"
		}
		sb.WriteString(fmt.Sprintf("  %s %s, %s\n", marker, exp.Role, exp.Company))
		sb.WriteString(fmt.Sprintf("    %s\n", content.FormatDateRange(exp.StartDate, exp.EndDate)))
	}
	if len(resume.Experience) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(resume.Experience)-maxItemsToShow))
	}
	sb.WriteString("\n")

	visible := resume.VisibleProjects()
	sb.WriteString(fmt.Sprintf("Projects: %d shown, %d hidden\n", len(visible), len(resume.Projects)-len(visible)))

	items := 0
	for _, group := range resume.Skills {
		items += len(group.Items)
	}
	sb.WriteString(fmt.Sprintf("Skills:   %d in %d groups\n", items, len(resume.Skills)))
	sb.WriteString(fmt.Sprintf("Education: %d", len(resume.Education)))

	p.printBox("RESUME CONTENT", sb.String())
}

// PrintSummary outputs scroll-depth reach and link clicks from the event store.
func (p *Printer) PrintSummary(summary *types.AnalyticsSummary) {
	if summary == nil {
		return
	}

	var sb strings.Builder

	sb.WriteString("Scroll depth:\n")
	if len(summary.ScrollDepth) == 0 {
		sb.WriteString("  (no events)\n")
	}
	depths := append([]types.EventCount(nil), summary.ScrollDepth...)
	sort.SliceStable(depths, func(i, j int) bool {
		a, _ := strconv.Atoi(depths[i].Label)
		b, _ := strconv.Atoi(depths[j].Label)
		return a < b
	})
	for _, c := range depths {
		sb.WriteString(fmt.Sprintf("  %4s%%  %d\n", c.Label, c.Count))
	}
	sb.WriteString("\n")

	sb.WriteString("Link clicks:\n")
	if len(summary.LinkClicks) == 0 {
		sb.WriteString("  (no events)\n")
	}
	clicks := append([]types.EventCount(nil), summary.LinkClicks...)
	sort.SliceStable(clicks, func(i, j int) bool {
		return clicks[i].Count > clicks[j].Count
	})
	count := min(len(clicks), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s  %d\n", clicks[i].Label, clicks[i].Count))
	}
	if len(clicks) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(clicks)-maxItemsToShow))
	}

	p.printBox("TELEMETRY SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}
