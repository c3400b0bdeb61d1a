package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/printgate/printgate/internal/types"
)

type sarif struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifResult struct {
	RuleID    string       `json:"ruleId"`
	RuleIndex int          `json:"ruleIndex"`
	Level     string       `json:"level"`
	Message   sarifMessage `json:"message"`
	Locations []sarifLoc   `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhys `json:"physicalLocation"`
}

type sarifPhys struct {
	ArtifactLocation sarifArt `json:"artifactLocation"`
}

type sarifArt struct {
	URI string `json:"uri"`
}

func sevToLevel(s types.Severity) string {
	switch s {
	case types.SevWarning:
		return "warning"
	case types.SevSuccess:
		return "none"
	default:
		return "error"
	}
}

func sarifText(o types.Outcome) string {
	if o.Detail != "" {
		return fmt.Sprintf("%s check %s: %s", o.Check, o.Severity, o.Detail)
	}
	keys := make([]string, 0, len(o.Values))
	for k := range o.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+o.Values[k])
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%s check %s", o.Check, o.Severity)
	}
	return fmt.Sprintf("%s check %s (%s)", o.Check, o.Severity, strings.Join(parts, ", "))
}

// WriteSARIF writes every non-Success outcome as a SARIF 2.1.0 result. Rules
// are the check names, in first-seen order.
func WriteSARIF(w io.Writer, outs []types.Outcome, version string) error {
	run := sarifRun{
		Tool:    sarifTool{Driver: sarifDriver{Name: "printgate", Version: version}},
		Results: []sarifResult{},
	}
	ruleIdx := map[string]int{}
	for _, o := range outs {
		if o.Severity == types.SevSuccess {
			continue
		}
		idx, ok := ruleIdx[o.Check]
		if !ok {
			idx = len(run.Tool.Driver.Rules)
			ruleIdx[o.Check] = idx
			run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, sarifRule{
				ID:               o.Check,
				ShortDescription: sarifMessage{Text: o.Check + " check"},
			})
		}
		run.Results = append(run.Results, sarifResult{
			RuleID:    o.Check,
			RuleIndex: idx,
			Level:     sevToLevel(o.Severity),
			Message:   sarifMessage{Text: sarifText(o)},
			Locations: []sarifLoc{{
				PhysicalLocation: sarifPhys{ArtifactLocation: sarifArt{URI: o.Artifact.Path}},
			}},
		})
	}
	doc := sarif{
		Version: "2.1.0",
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Runs:    []sarifRun{run},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
