package checks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/sirupsen/logrus"

	"github.com/printgate/printgate/internal/engine"
	"github.com/printgate/printgate/internal/types"
)

// RotationThreshold is the smallest suggested rotation, in radians, that is
// reported.
const RotationThreshold = 0.1

// RotationCap is the default artifact cap for the rotation check; every
// artifact renders up to two thumbnails.
const RotationCap = 40

// Orientation is the suggestion of an orientation optimizer.
type Orientation struct {
	Angle   float64 `json:"rotation_angle"`
	Objects int     `json:"objects"`
}

// Orienter computes a better print orientation for the mesh at in and writes
// the reoriented mesh to out.
type Orienter interface {
	Orient(ctx context.Context, in, out string) (Orientation, error)
}

// CommandOrienter runs a command that prints an Orientation as JSON.
type CommandOrienter struct {
	Tool Tool
}

func (o CommandOrienter) Orient(ctx context.Context, in, out string) (Orientation, error) {
	if !o.Tool.Configured() {
		return Orientation{}, fmt.Errorf("no orientation tool configured (tools.orient)")
	}
	stdout, err := o.Tool.Run(ctx, map[string]string{"input": in, "output": out})
	if err != nil {
		return Orientation{}, err
	}
	return parseOrientation(stdout)
}

// parseOrientation accepts the JSON object either as the whole output or as
// its last non-empty line.
func parseOrientation(out []byte) (Orientation, error) {
	var o Orientation
	trimmed := bytes.TrimSpace(out)
	if err := json.Unmarshal(trimmed, &o); err == nil {
		return o, nil
	}
	lines := bytes.Split(trimmed, []byte("\n"))
	if err := json.Unmarshal(bytes.TrimSpace(lines[len(lines)-1]), &o); err != nil {
		return o, fmt.Errorf("parse orientation output: %w", err)
	}
	return o, nil
}

// Thumbnailer renders a mesh to a PNG.
type Thumbnailer interface {
	Render(ctx context.Context, in, out string) error
}

// DefaultThumbnailCommand renders with stl-thumb.
var DefaultThumbnailCommand = []string{"stl-thumb", "{input}", "{output}", "-a", "fxaa", "-s", "{size}"}

type CommandThumbnailer struct {
	Tool Tool
	Size int
}

func (t CommandThumbnailer) Render(ctx context.Context, in, out string) error {
	_, err := t.Tool.Run(ctx, map[string]string{"input": in, "output": out, "size": strconv.Itoa(t.Size)})
	return err
}

// ImageSettings controls where thumbnails go and how they are linked.
type ImageSettings struct {
	URLEndpoint string
	Subfolder   string
}

// Rotation warns about meshes whose suggested orientation differs from the
// current one. Thumbnails of both orientations are linked in the report when
// an OutputDir and a Thumbnailer are set.
type Rotation struct {
	Orienter    Orienter
	Thumbnailer Thumbnailer
	OutputDir   string
	Images      ImageSettings
}

var rotationColumns = []types.Column{
	{Title: "Current orientation", Key: "current"},
	{Title: "Suggested orientation", Key: "suggested"},
}

func (r *Rotation) Name() string            { return "rotation" }
func (r *Rotation) Columns() []types.Column { return rotationColumns }

func (r *Rotation) Run(ctx context.Context, a types.Artifact) (engine.Verdict, error) {
	log := logrus.WithField("artifact", a.Path)
	v := engine.Verdict{Severity: types.SevSuccess, Values: map[string]string{}}

	current, err := r.thumbnail(ctx, a.FullPath())
	if err != nil {
		return engine.Verdict{}, err
	}
	v.Values["current"] = current

	final := ""
	if r.OutputDir != "" {
		ext := filepath.Ext(a.Path)
		rel := strings.TrimSuffix(filepath.FromSlash(a.Path), ext) + "_rotated" + ext
		final = filepath.Join(r.OutputDir, rel)
	}
	tmp, err := stage(final, a.Name())
	if err != nil {
		return engine.Verdict{}, err
	}
	defer tmp.discard()

	o, err := r.Orienter.Orient(ctx, a.FullPath(), tmp.path)
	if err != nil {
		return engine.Verdict{}, err
	}
	v.Values["angle"] = strconv.FormatFloat(o.Angle, 'f', 3, 64)
	if o.Objects > 1 {
		log.Warn("file contains multiple objects and is therefore skipped")
		return v, nil
	}
	if o.Angle < RotationThreshold {
		return v, nil
	}

	v.Severity = types.SevWarning
	log.Warnf("suggested rotation of %.3f rad", o.Angle)
	if final != "" {
		if err := tmp.promote(); err != nil {
			return engine.Verdict{}, err
		}
		log.Infof("saved rotated STL to %s", final)
		suggested, err := r.thumbnail(ctx, final)
		if err != nil {
			return engine.Verdict{}, err
		}
		v.Values["suggested"] = suggested
	}
	return v, nil
}

// thumbnail renders meshPath into <OutputDir>/img/<Subfolder> and returns the
// Markdown image link. It returns "" when thumbnails are disabled.
func (r *Rotation) thumbnail(ctx context.Context, meshPath string) (string, error) {
	if r.OutputDir == "" || r.Thumbnailer == nil {
		return "", nil
	}
	name, err := ImageName(meshPath)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(r.OutputDir, "img", filepath.FromSlash(r.Images.Subfolder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := r.Thumbnailer.Render(ctx, meshPath, filepath.Join(dir, name)); err != nil {
		return "", fmt.Errorf("render thumbnail: %w", err)
	}
	url := ImageURL(r.Images, name)
	return fmt.Sprintf(`[<img src="%s" width="100" height="100">](%s)`, url, url), nil
}

// ImageName derives a stable PNG name from the mesh file name and a hash of
// its content, so re-runs on unchanged input produce the same URL.
func ImageName(meshPath string) (string, error) {
	f, err := os.Open(meshPath)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	base := filepath.Base(meshPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("%s_%08x.png", stem, uint32(h.Sum64())), nil
}

// ImageURL joins the endpoint, subfolder and image name.
func ImageURL(s ImageSettings, name string) string {
	p := path.Join(s.Subfolder, name)
	if s.URLEndpoint == "" {
		return p
	}
	return strings.TrimSuffix(s.URLEndpoint, "/") + "/" + strings.TrimPrefix(p, "/")
}
