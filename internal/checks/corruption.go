package checks

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/printgate/printgate/internal/engine"
	"github.com/printgate/printgate/internal/types"
)

// RepairStats are the defect counters reported by a mesh repair.
type RepairStats struct {
	EdgesFixed       int
	BackwardsEdges   int
	DegenerateFacets int
	FacetsRemoved    int
	FacetsAdded      int
	FacetsReversed   int
}

// Defective reports whether the repair had to change anything.
func (s RepairStats) Defective() bool {
	return s.EdgesFixed > 0 || s.BackwardsEdges > 0 || s.DegenerateFacets > 0 ||
		s.FacetsRemoved > 0 || s.FacetsAdded > 0 || s.FacetsReversed > 0
}

func (s RepairStats) values() map[string]string {
	return map[string]string{
		"edges_fixed":       strconv.Itoa(s.EdgesFixed),
		"backwards_edges":   strconv.Itoa(s.BackwardsEdges),
		"degenerate_facets": strconv.Itoa(s.DegenerateFacets),
		"facets_removed":    strconv.Itoa(s.FacetsRemoved),
		"facets_added":      strconv.Itoa(s.FacetsAdded),
		"facets_reversed":   strconv.Itoa(s.FacetsReversed),
	}
}

// Repairer repairs the mesh at in, writes the repaired mesh as ASCII STL to
// out and reports what it changed.
type Repairer interface {
	Repair(ctx context.Context, in, out string) (RepairStats, error)
}

// DefaultRepairCommand runs admesh with all repairs enabled.
var DefaultRepairCommand = []string{"admesh", "--write-ascii-stl={output}", "{input}"}

// AdmeshRepairer runs an admesh-compatible command and parses the statistics
// block it prints.
type AdmeshRepairer struct {
	Tool Tool
}

func (r AdmeshRepairer) Repair(ctx context.Context, in, out string) (RepairStats, error) {
	stdout, err := r.Tool.Run(ctx, map[string]string{"input": in, "output": out})
	if err != nil {
		return RepairStats{}, err
	}
	return ParseAdmeshStats(stdout)
}

var statLine = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z ]*?)\s*:\s*(\d+)\s*$`)

// ParseAdmeshStats extracts the defect counters from admesh output.
func ParseAdmeshStats(out []byte) (RepairStats, error) {
	var s RepairStats
	fields := map[string]*int{
		"edges fixed":       &s.EdgesFixed,
		"backwards edges":   &s.BackwardsEdges,
		"degenerate facets": &s.DegenerateFacets,
		"facets removed":    &s.FacetsRemoved,
		"facets added":      &s.FacetsAdded,
		"facets reversed":   &s.FacetsReversed,
	}
	found := 0
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		m := statLine.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		dst, ok := fields[strings.ToLower(m[1])]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return s, err
		}
		*dst = n
		found++
	}
	if found == 0 {
		return s, errors.New("no repair statistics in tool output")
	}
	return s, sc.Err()
}

// Corruption fails every mesh the repairer had to fix. With an OutputDir the
// repaired mesh is saved under the artifact's relative path.
type Corruption struct {
	Repairer  Repairer
	OutputDir string
}

var corruptionColumns = []types.Column{
	{Title: "Edges Fixed", Key: "edges_fixed", Zero: "0"},
	{Title: "Backwards Edges", Key: "backwards_edges", Zero: "0"},
	{Title: "Degenerate Facets", Key: "degenerate_facets", Zero: "0"},
	{Title: "Facets Removed", Key: "facets_removed", Zero: "0"},
	{Title: "Facets Added", Key: "facets_added", Zero: "0"},
	{Title: "Facets Reversed", Key: "facets_reversed", Zero: "0"},
}

func (c *Corruption) Name() string            { return "corruption" }
func (c *Corruption) Columns() []types.Column { return corruptionColumns }

func (c *Corruption) Run(ctx context.Context, a types.Artifact) (engine.Verdict, error) {
	final := ""
	if c.OutputDir != "" {
		final = filepath.Join(c.OutputDir, filepath.FromSlash(a.Path))
	}
	tmp, err := stage(final, a.Name())
	if err != nil {
		return engine.Verdict{}, err
	}
	defer tmp.discard()

	stats, err := c.Repairer.Repair(ctx, a.FullPath(), tmp.path)
	if err != nil {
		return engine.Verdict{}, err
	}
	v := engine.Verdict{Severity: types.SevSuccess, Values: stats.values()}
	if !stats.Defective() {
		return v, nil
	}
	v.Severity = types.SevFailure
	log := logrus.WithField("artifact", a.Path)
	log.Error("corrupt STL detected")
	if final != "" {
		if err := tmp.promote(); err != nil {
			return engine.Verdict{}, err
		}
		log.Infof("saved fixed STL to %s", final)
	}
	return v, nil
}
