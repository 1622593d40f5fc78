package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/skylift/skylift/internal/provisioning"
)

func renderView(m Model) string {
	var b strings.Builder

	renderHeader(&b, m)
	renderProgressBar(&b, m)
	renderSteps(&b, m)
	if len(m.Warnings) > 0 {
		renderWarnings(&b, m)
	}
	renderFooter(&b, m)

	return b.String()
}

func renderHeader(b *strings.Builder, m Model) {
	title := fmt.Sprintf("skylift: %s", m.Title)
	if m.Environment != "" {
		title += fmt.Sprintf(" (%s)", m.Environment)
	}
	b.WriteString(titleStyle.Render(title))

	status := " "
	switch {
	case m.Err != nil:
		status += failedStyle.Render(fmt.Sprintf("Error: %v", m.Err))
	case m.Done:
		status += readyStyle.Render("Done")
	default:
		status += activeStyle.Render(currentSpinner(m.SpinnerFrame))
	}
	b.WriteString(status)
	b.WriteString("\n")
}

func renderProgressBar(b *strings.Builder, m Model) {
	total := len(m.Steps)
	if total == 0 {
		return
	}
	progress := float64(m.FinishedCount()) / float64(total)

	barWidth := 40
	if m.Width > 0 && m.Width < 80 {
		barWidth = m.Width - 30
		if barWidth < 10 {
			barWidth = 10
		}
	}
	filled := int(float64(barWidth) * progress)
	if filled > barWidth {
		filled = barWidth
	}

	bar := progressBarFull.Render(strings.Repeat("█", filled)) +
		progressBarEmpty.Render(strings.Repeat("░", barWidth-filled))

	pct := int(progress * 100)
	eta := ""
	if m.EstimatedRemaining > 0 && !m.Done {
		eta = fmt.Sprintf(" ETA %s", formatDuration(m.EstimatedRemaining))
	}
	if m.PerformanceScale != 0 && m.PerformanceScale != 1.0 {
		eta += fmt.Sprintf("  speed x%.2f", m.PerformanceScale)
	}

	fmt.Fprintf(b, "  %s %d%%%s\n", bar, pct, eta)
}

func renderSteps(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Steps"))
	b.WriteString("\n")

	for _, step := range m.Steps {
		mark := pending
		style := dimStyle
		suffix := ""

		switch {
		case step.Active:
			mark = currentSpinner(m.SpinnerFrame)
			style = activeStyle
		case step.Finished:
			switch step.Outcome {
			case provisioning.OutcomeCreated:
				mark = checkMark
				style = readyStyle
				suffix = " created"
			case provisioning.OutcomeAlreadyExisted:
				mark = checkMark
				style = readyStyle
				suffix = " exists"
			case provisioning.OutcomeSkipped:
				mark = skipMark
				style = dimStyle
				suffix = " skipped"
			case provisioning.OutcomeFailed:
				mark = crossMark
				style = failedStyle
				if step.Err != nil {
					suffix = " " + firstLine(step.Err.Error())
				}
			}
			if step.Duration > 0 {
				suffix += dimStyle.Render(fmt.Sprintf(" (%s)", formatDuration(step.Duration)))
			}
		}

		fmt.Fprintf(b, "  %s %s%s\n", mark, style.Render(step.Name), suffix)
	}
}

func renderWarnings(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Warnings"))
	b.WriteString("\n")
	for _, w := range m.Warnings {
		fmt.Fprintf(b, "  %s %s\n", warnMark, warningStyle.Render(w))
	}
}

func renderFooter(b *strings.Builder, m Model) {
	elapsed := time.Since(m.StartTime).Round(time.Second)
	b.WriteString(footerStyle.Render(fmt.Sprintf("  elapsed %s  ·  q to quit", elapsed)))
	b.WriteString("\n")
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
