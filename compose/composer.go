// Package compose writes rendered fragments into the output directory tree
// and assembles the master document.
package compose

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gridlab/fieldreport/outline"
	"github.com/gridlab/fieldreport/record"
	"github.com/gridlab/fieldreport/render"
)

// MatterDir is the subdirectory holding per-section output.
const MatterDir = "Matter"

// StandaloneArtifactRel returns the root-relative path of the compiled
// standalone artifact for a section slug, as referenced from the section
// body.
func StandaloneArtifactRel(slug string) string {
	return filepath.ToSlash(filepath.Join(MatterDir, slug, "section_"+slug+"_standalone.pdf"))
}

// Fragment is the rendered markup for one section, plus the optional
// standalone document compiled as the section's own artifact.
type Fragment struct {
	SectionID string

	// Body is the markup included by the master document.
	Body string

	// Standalone is the compilable standalone document for this section.
	// Empty means the section has no per-section artifact.
	Standalone string
}

// Layout describes the files one compose pass wrote.
type Layout struct {
	// Root is the output root directory.
	Root string

	// MasterTex is the master document path.
	MasterTex string

	// SectionTex maps section ID to its fragment file path.
	SectionTex map[string]string

	// StandaloneTex maps section ID to its standalone document path.
	StandaloneTex map[string]string
}

// Composer writes one run's artifacts under a target root directory.
// Re-running overwrites prior artifacts; stale files from removed records
// are flagged as orphans, never deleted.
type Composer struct {
	// Root is the target output directory.
	Root string

	// MasterName is the master file base name, without extension.
	MasterName string

	// Title and Project feed the master document front matter.
	Title   string
	Project string

	// LogoPath is the optional header logo.
	LogoPath string

	logger *slog.Logger
}

// NewComposer creates a composer for the target root directory.
func NewComposer(root, masterName, title, project, logoPath string, logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	if masterName == "" {
		masterName = "report"
	}
	return &Composer{
		Root:       root,
		MasterName: masterName,
		Title:      title,
		Project:    project,
		LogoPath:   logoPath,
		logger:     logger,
	}
}

// Prepare creates the output directory tree for the outline. It runs once,
// before any concurrent section work, so section writers never race on
// directory creation.
func (c *Composer) Prepare(o *outline.Outline) error {
	if err := os.MkdirAll(filepath.Join(c.Root, MatterDir), 0755); err != nil {
		return fmt.Errorf("create output tree: %w", err)
	}
	for _, sec := range o.RecordSections() {
		dir := filepath.Join(c.Root, MatterDir, sec.Slug())
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create section dir %s: %w", dir, err)
		}
	}
	return nil
}

// Compose writes every fragment and the master document. The fragments must
// cover the outline's record sections; front-matter bodies map section ID to
// markup. On a write failure the files already written stay on disk and the
// error propagates so the run is reported as failed.
func (c *Composer) Compose(o *outline.Outline, fragments []Fragment, frontMatter map[string]string) (*Layout, error) {
	layout := &Layout{
		Root:          c.Root,
		SectionTex:    make(map[string]string),
		StandaloneTex: make(map[string]string),
	}

	byID := make(map[string]Fragment, len(fragments))
	for _, f := range fragments {
		byID[f.SectionID] = f
	}

	var execSummaryRel string
	var sectionRels []string

	for _, sec := range o.Sections {
		if sec.FrontMatter {
			rel, err := c.writeFrontMatter(sec, frontMatter[sec.ID])
			if err != nil {
				return nil, err
			}
			// The first front-matter section is the executive summary slot.
			if execSummaryRel == "" {
				execSummaryRel = rel
			}
			continue
		}

		frag, ok := byID[sec.ID]
		if !ok {
			return nil, fmt.Errorf("no fragment rendered for section %s", sec.ID)
		}

		slug := sec.Slug()
		name := "section_" + slug + ".tex"
		path := filepath.Join(c.Root, MatterDir, slug, name)
		if err := writeFile(path, frag.Body); err != nil {
			return nil, err
		}
		layout.SectionTex[sec.ID] = path
		sectionRels = append(sectionRels, strings.TrimSuffix(filepath.ToSlash(filepath.Join(MatterDir, slug, name)), ".tex"))

		if frag.Standalone != "" {
			sPath := filepath.Join(c.Root, MatterDir, slug, "section_"+slug+"_standalone.tex")
			if err := writeFile(sPath, frag.Standalone); err != nil {
				return nil, err
			}
			layout.StandaloneTex[sec.ID] = sPath
		}
	}

	master := render.Master(render.MasterData{
		Title:           c.Title,
		Project:         c.Project,
		LogoPath:        c.LogoPath,
		ExecSummaryPath: execSummaryRel,
		SectionPaths:    sectionRels,
	})
	layout.MasterTex = filepath.Join(c.Root, c.MasterName+".tex")
	if err := writeFile(layout.MasterTex, master); err != nil {
		return nil, err
	}

	c.logger.Info("Composed document",
		slog.String("master", layout.MasterTex),
		slog.Int("sections", len(layout.SectionTex)))
	return layout, nil
}

// writeFrontMatter writes one front-matter fragment and returns its
// extension-less include path relative to the root.
func (c *Composer) writeFrontMatter(sec outline.Section, body string) (string, error) {
	name := "section_" + strings.ToLower(sec.Slug()) + ".tex"
	path := filepath.Join(c.Root, MatterDir, name)
	if err := writeFile(path, body); err != nil {
		return "", err
	}
	return strings.TrimSuffix(filepath.ToSlash(filepath.Join(MatterDir, name)), ".tex"), nil
}

// Orphans lists section directories under the output tree that no current
// outline section owns. They are reported, not deleted.
func (c *Composer) Orphans(o *outline.Outline) []record.Diagnostic {
	entries, err := os.ReadDir(filepath.Join(c.Root, MatterDir))
	if err != nil {
		return nil
	}

	known := make(map[string]bool)
	for _, sec := range o.RecordSections() {
		known[sec.Slug()] = true
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() && !known[e.Name()] {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var diags []record.Diagnostic
	for _, name := range names {
		diags = append(diags, record.Diagnostic{
			Kind:    record.DiagOrphanOutput,
			Message: fmt.Sprintf("stale section output %s left in place", filepath.Join(MatterDir, name)),
		})
	}
	return diags
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
