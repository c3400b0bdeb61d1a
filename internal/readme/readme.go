// Package readme builds the overview table of all submitted designs from
// their metadata files and keeps it current in README.md.
package readme

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/printgate/printgate/internal/engine"
	"github.com/printgate/printgate/internal/metadata"
)

const (
	TitleWidth       = 35
	DescriptionWidth = 70

	BeginMarker = "<!-- BEGIN:MODS -->"
	EndMarker   = "<!-- END:MODS -->"

	tableHeader = "| Creator | Mod title | Description | Printer compatibility | Last Changed |\n" +
		"| --- | --- | ----- | --- | --- |\n"
	// TimeLayout matches git's iso-local date format.
	TimeLayout = "2006-01-02 15:04:05 -0700"
)

// Mod is one row of the overview.
type Mod struct {
	Path                 string `json:"path"`
	Title                string `json:"title"`
	Creator              string `json:"creator"`
	Description          string `json:"description"`
	PrinterCompatibility string `json:"printer_compatibility"`
	LastChanged          string `json:"last_changed"`
}

// History reports when a slash path relative to the scan root last changed.
type History interface {
	LastChanged(rel string) (time.Time, error)
}

// Collect reads every metadata file under root in sorted path order. A nil
// history leaves LastChanged empty, as does a path without commits.
func Collect(root string, history History) ([]Mod, error) {
	d, err := engine.Discover(engine.Config{
		Root:            root,
		Extensions:      []string{metadata.FileName},
		DefaultExcludes: true,
	})
	if err != nil {
		return nil, err
	}
	mods := make([]Mod, 0, len(d.Artifacts))
	for _, a := range d.Artifacts {
		md, err := metadata.Load(a.FullPath())
		if err != nil {
			return nil, err
		}
		dir := path.Dir(a.Path)
		compat := append([]string(nil), md.PrinterCompatibility...)
		sort.Strings(compat)
		m := Mod{
			Path:                 dir,
			Title:                Shorten(md.Title, TitleWidth),
			Creator:              strings.SplitN(a.Path, "/", 2)[0],
			Description:          Shorten(md.Description, DescriptionWidth),
			PrinterCompatibility: strings.Join(compat, ", "),
		}
		if history != nil {
			when, err := history.LastChanged(dir)
			if err == nil {
				m.LastChanged = when.Local().Format(TimeLayout)
			} else {
				logrus.WithField("artifact", a.Path).WithError(err).Debug("no last-changed date")
			}
		}
		mods = append(mods, m)
	}
	return mods, nil
}

// Shorten collapses whitespace and, if the text is longer than width runes,
// drops trailing words until the kept words plus "..." fit.
func Shorten(s string, width int) string {
	const placeholder = "..."
	words := strings.Fields(s)
	full := strings.Join(words, " ")
	if utf8.RuneCountInString(full) <= width {
		return full
	}
	out := ""
	for _, w := range words {
		next := w
		if out != "" {
			next = out + " " + w
		}
		if utf8.RuneCountInString(next)+len(placeholder) > width {
			break
		}
		out = next
	}
	return out + placeholder
}

// Table renders the overview. The creator cell is left empty while it repeats
// the previous row's creator.
func Table(mods []Mod) string {
	var b strings.Builder
	b.WriteString(tableHeader)
	prev := ""
	for _, m := range mods {
		creator := m.Creator
		if creator == prev {
			creator = ""
		}
		fmt.Fprintf(&b, "| %s | [%s](%s) | %s | %s | %s |\n",
			cell(creator), cell(m.Title), m.Path, cell(m.Description), cell(m.PrinterCompatibility), m.LastChanged)
		prev = m.Creator
	}
	return b.String()
}

func cell(s string) string { return strings.ReplaceAll(s, "|", `\|`) }

// ReplaceSection returns doc with the text between the markers replaced by
// table. A document without markers gets a new section appended.
func ReplaceSection(doc []byte, table string) []byte {
	start := []byte(BeginMarker)
	end := []byte(EndMarker)
	i := bytes.Index(doc, start)
	j := bytes.Index(doc, end)
	var nb bytes.Buffer
	if i < 0 || j < 0 || j <= i {
		nb.Write(doc)
		if len(doc) > 0 && !bytes.HasSuffix(doc, []byte("\n")) {
			nb.WriteString("\n")
		}
		if len(doc) > 0 {
			nb.WriteString("\n")
		}
		nb.Write(start)
		nb.WriteString("\n")
		nb.WriteString(table)
		nb.Write(end)
		nb.WriteString("\n")
		return nb.Bytes()
	}
	nb.Write(doc[:i])
	nb.Write(start)
	nb.WriteString("\n")
	nb.WriteString(table)
	nb.Write(doc[j:])
	return nb.Bytes()
}

// UpdateFile rewrites the overview section of the README at p, creating the
// file with a "# Mods" heading when it does not exist.
func UpdateFile(p string, mods []Mod) error {
	doc, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		doc = []byte("# Mods\n")
	} else if err != nil {
		return err
	}
	return os.WriteFile(p, ReplaceSection(doc, Table(mods)), 0o644)
}

// WriteJSON writes mods as a JSON array.
func WriteJSON(p string, mods []Mod) error {
	b, err := json.Marshal(mods)
	if err != nil {
		return err
	}
	return os.WriteFile(p, append(b, '\n'), 0o644)
}
