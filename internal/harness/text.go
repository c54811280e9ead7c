package harness

import (
	"fmt"
	"io"
	"strings"
)

// FormatText writes a result as an aligned, human-readable trace followed
// by the final connection graphs
func FormatText(w io.Writer, result *Result) error {
	status := "PASS"
	if !result.Pass {
		status = "FAIL"
	}
	if _, err := fmt.Fprintf(w, "scenario %s: %s\n\n", result.Scenario, status); err != nil {
		return err
	}

	for _, ev := range result.Trace {
		if _, err := fmt.Fprintf(w, "%4d  %-13s %s\n", ev.Seq, ev.Op, describe(ev)); err != nil {
			return err
		}
	}

	for _, msg := range result.Errors {
		if _, err := fmt.Fprintf(w, "\nerror: %s", msg); err != nil {
			return err
		}
	}
	if len(result.Errors) > 0 {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	for _, name := range result.GraphNames() {
		if _, err := fmt.Fprintf(w, "\ngraph %s:\n%s\n", name, strings.TrimRight(result.Graphs[name], "\n")); err != nil {
			return err
		}
	}
	return nil
}

func describe(ev TraceEvent) string {
	var parts []string
	if ev.Target != "" {
		parts = append(parts, ev.Target)
	}
	if ev.Member != "" {
		parts = append(parts, "<- "+ev.Member)
	}
	if ev.Label != "" {
		parts = append(parts, "#"+ev.Label)
	}
	if ev.Type != "" {
		parts = append(parts, ev.Type)
	}
	if ev.Value != "" {
		parts = append(parts, "="+ev.Value)
	}
	if ev.Result != "" {
		parts = append(parts, "-> "+ev.Result)
	}
	return strings.Join(parts, " ")
}
