package agent

import (
	"fmt"
	"strings"

	"github.com/Jeff-67/TonyStock/internal/agent/models"
	"github.com/Jeff-67/TonyStock/internal/tool"
)

// FindingKind classifies one verification finding.
type FindingKind string

const (
	// FindingMissing means a requested tool has no execution result.
	FindingMissing FindingKind = "missing"
	// FindingSuspicious means a result claims ok but carries no payload.
	FindingSuspicious FindingKind = "suspicious"
)

// Finding is one verification mismatch.
type Finding struct {
	Tool   string
	Kind   FindingKind
	Detail string
}

// Report is the outcome of verifying one round of tool executions.
// It is observational: the loop logs it and, at most once per run when
// configured, grants a corrective round.
type Report struct {
	Findings []Finding
}

// Clean reports whether no mismatch was found.
func (r Report) Clean() bool {
	return len(r.Findings) == 0
}

// Suspicious reports whether any ok-result carried no payload.
func (r Report) Suspicious() bool {
	for _, f := range r.Findings {
		if f.Kind == FindingSuspicious {
			return true
		}
	}
	return false
}

func (r Report) String() string {
	if r.Clean() {
		return "verified"
	}
	parts := make([]string, 0, len(r.Findings))
	for _, f := range r.Findings {
		parts = append(parts, fmt.Sprintf("%s(%s): %s", f.Kind, f.Tool, f.Detail))
	}
	return strings.Join(parts, "; ")
}

// Verify independently checks that every requested tool actually ran and that
// successful results carry data. It catches silent executor skips and
// false-positive successes.
func Verify(requested []models.ToolRequest, executed []tool.Result) Report {
	var report Report

	counts := make(map[string]int, len(executed))
	for _, res := range executed {
		counts[res.Name]++
	}
	for _, req := range requested {
		if counts[req.Name] == 0 {
			report.Findings = append(report.Findings, Finding{
				Tool:   req.Name,
				Kind:   FindingMissing,
				Detail: "requested but never executed",
			})
			continue
		}
		counts[req.Name]--
	}

	for _, res := range executed {
		if res.Status == tool.StatusOK && strings.TrimSpace(res.Payload) == "" {
			report.Findings = append(report.Findings, Finding{
				Tool:   res.Name,
				Kind:   FindingSuspicious,
				Detail: "status ok with empty payload",
			})
		}
	}

	return report
}
