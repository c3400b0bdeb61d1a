package checks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/printgate/printgate/internal/engine"
	"github.com/printgate/printgate/internal/metadata"
	"github.com/printgate/printgate/internal/types"
)

// Metadata fails every .metadata.yml that lists no CAD files or references
// CAD or image files that do not exist next to it.
type Metadata struct{}

var metadataColumns = []types.Column{
	{Title: "CAD files", Key: "cad", Zero: "0/0"},
	{Title: "Images", Key: "images", Zero: "0/0"},
	{Title: "Missing", Key: "missing"},
}

func (Metadata) Name() string            { return "metadata" }
func (Metadata) Columns() []types.Column { return metadataColumns }

func (Metadata) Run(_ context.Context, a types.Artifact) (engine.Verdict, error) {
	md, err := metadata.Load(a.FullPath())
	if err != nil {
		return engine.Verdict{}, err
	}
	dir := filepath.Dir(a.FullPath())
	var missing []string
	count := func(files []string) string {
		ok := 0
		for _, f := range files {
			if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(f))); err == nil {
				ok++
			} else {
				missing = append(missing, f)
			}
		}
		return fmt.Sprintf("%d/%d", ok, len(files))
	}
	v := engine.Verdict{
		Severity: types.SevSuccess,
		Values: map[string]string{
			"cad":    count(md.CAD),
			"images": count(md.Images),
		},
	}
	if len(md.CAD) == 0 {
		missing = append([]string{"(no cad files listed)"}, missing...)
	}
	if len(missing) > 0 {
		v.Severity = types.SevFailure
		v.Values["missing"] = strings.Join(missing, ", ")
		logrus.WithField("artifact", a.Path).Errorf("missing files: %s", v.Values["missing"])
	}
	return v, nil
}
