// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"
	"time"

	"bpybuild/internal/orchestrate"
	"bpybuild/internal/tasklog"
)

var reportTitles = map[string]string{
	tasklog.CategoryBuild:   "Build",
	tasklog.CategoryPackage: "Package",
	tasklog.CategoryTest:    "Test",
}

// printReport writes one line per task to stdout.
func (a *App) printReport(rep *orchestrate.Report) {
	title := reportTitles[rep.Category]
	fmt.Fprintf(a.stdout, "\n%s %s\n", TitleStyle.Render(title),
		SubtitleStyle.Render(fmt.Sprintf("(%d ok, %d failed)", len(rep.Succeeded()), len(rep.Failed()))))

	if len(rep.Outcomes) == 0 {
		fmt.Fprintf(a.stdout, "  %s\n", SubtitleStyle.Render("nothing to do"))
		return
	}
	for _, o := range rep.Outcomes {
		fmt.Fprintln(a.stdout, formatOutcome(rep.Category, o))
	}
}

func formatOutcome(category string, o orchestrate.Outcome) string {
	var sb strings.Builder
	sb.WriteString("  ")
	switch {
	case o.OK():
		sb.WriteString(SuccessStyle.Render(iconSuccess))
	case category == tasklog.CategoryTest:
		sb.WriteString(WarningStyle.Render(iconWarning))
	default:
		sb.WriteString(ErrorStyle.Render(iconFailure))
	}
	sb.WriteString(" ")
	sb.WriteString(summaryPairStyle.Render(o.Pair.String()))
	sb.WriteString(summaryElapsedStyle.Render(formatElapsed(o.Elapsed)))
	sb.WriteString("  ")

	if o.OK() {
		sb.WriteString(CmdStyle.Render(o.Artifact))
		return sb.String()
	}
	if category == tasklog.CategoryTest && o.ExitCode != 0 {
		fmt.Fprintf(&sb, "exit code %d  ", o.ExitCode)
	}
	if o.LogPath != "" {
		sb.WriteString(SubtitleStyle.Render("log: "))
		sb.WriteString(CmdStyle.Render(o.LogPath))
	} else {
		sb.WriteString(o.Err.Error())
	}
	return sb.String()
}

func formatElapsed(d time.Duration) string {
	switch {
	case d >= time.Minute:
		return fmt.Sprintf("%.2fm", d.Minutes())
	default:
		return d.Round(100 * time.Millisecond).String()
	}
}
