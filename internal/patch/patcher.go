// Package patch places sanitized rustdoc blocks into Rust sources: it resolves
// where each block goes, turns slots into byte edits and rewrites each file in
// a single pass.
package patch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"rustdocs/internal/locate"
	"rustdocs/internal/model"
)

// Guard vets the patched text of a file before it is written.
type Guard interface {
	Check(path string, before, after []byte) error
}

// Options control one patch pass.
type Options struct {
	// Overwrite replaces existing doc blocks instead of skipping their items.
	Overwrite bool
	// DryRun computes edits and a diff without writing anything.
	DryRun bool
	// Jobs bounds how many files are patched concurrently. Zero means GOMAXPROCS.
	Jobs   int
	Guard  Guard
	Logger *slog.Logger
}

// FileReport summarizes what happened to one file.
type FileReport struct {
	Path            string
	Edits           int
	SkippedNoAnchor int
	SkippedExisting int
	SkippedEmpty    int
	Diff            string
	Err             error
}

// Changed reports whether the file received at least one edit.
func (r FileReport) Changed() bool { return r.Edits > 0 && r.Err == nil }

// Summary is the one-line operator summary for the file.
func (r FileReport) Summary() string {
	return fmt.Sprintf("Patched %s: %d edits (skipped_no_sig=%d, skipped_existing_doc=%d)",
		r.Path, r.Edits, r.SkippedNoAnchor, r.SkippedExisting)
}

// FileError is a failure confined to one file of the pass.
type FileError struct {
	Path string
	Op   string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Patcher applies doc results to the files they name.
type Patcher struct {
	opts   Options
	logger *slog.Logger
}

func New(opts Options) *Patcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.GOMAXPROCS(0)
	}
	return &Patcher{opts: opts, logger: logger}
}

// GroupByFile buckets results by cleaned file path, with the files in lexical
// order. Spellings of one path such as ./src/lib.rs and src/lib.rs share a
// bucket so the file is rewritten once.
func GroupByFile(results []model.DocResult) ([]string, map[string][]model.DocResult) {
	byFile := make(map[string][]model.DocResult)
	for _, r := range results {
		path := filepath.Clean(r.File)
		byFile[path] = append(byFile[path], r)
	}
	files := make([]string, 0, len(byFile))
	for f := range byFile {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, byFile
}

// PatchFiles runs one pass over every file named in results. A failing file
// does not stop the others; its error is kept on its report and joined into
// the returned error.
func (p *Patcher) PatchFiles(ctx context.Context, results []model.DocResult) ([]FileReport, error) {
	files, byFile := GroupByFile(results)
	if len(files) == 0 {
		return nil, nil
	}

	reports := make([]FileReport, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(p.opts.Jobs, len(files)))

	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				reports[i] = FileReport{Path: path, Err: &FileError{Path: path, Op: "patch", Err: err}}
				return nil
			}
			reports[i] = p.PatchFile(path, byFile[path])
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, r := range reports {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return reports, errors.Join(errs...)
}

// PatchFile reads path once, applies every item and writes the result back.
func (p *Patcher) PatchFile(path string, items []model.DocResult) FileReport {
	start := time.Now()
	report := FileReport{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		report.Err = &FileError{Path: path, Op: "read", Err: err}
		return report
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		report.Err = &FileError{Path: path, Op: "read", Err: err}
		return report
	}
	original := string(raw)

	edits := p.Plan(original, items, &report)
	if len(edits) == 0 {
		p.logger.Info(report.Summary(), slog.String("file", path))
		return report
	}

	patched := ApplyEdits(original, edits)
	if p.opts.Guard != nil {
		if err := p.opts.Guard.Check(path, raw, []byte(patched)); err != nil {
			report.Err = &FileError{Path: path, Op: "guard", Err: err}
			return report
		}
	}

	if p.opts.DryRun {
		report.Diff = LineDiff(path, original, patched)
	} else if err := os.WriteFile(path, []byte(patched), info.Mode().Perm()); err != nil {
		report.Err = &FileError{Path: path, Op: "write", Err: err}
		return report
	}

	p.logger.Debug("patched file",
		slog.String("file", path),
		slog.Int("edits", report.Edits),
		slog.Int("skipped_no_anchor", report.SkippedNoAnchor),
		slog.Int("skipped_existing", report.SkippedExisting),
		slog.Bool("dry_run", p.opts.DryRun),
		slog.Int64("elapsed_ms", time.Since(start).Milliseconds()),
	)
	return report
}

// Plan resolves every item against original and returns the edits to apply,
// counting skips on report. original is never modified.
func (p *Patcher) Plan(original string, items []model.DocResult, report *FileReport) []Edit {
	lines := locate.SplitLines(original)
	starts := LineStarts(original)

	sorted := make([]model.DocResult, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Line() < sorted[j].Line() })

	var (
		edits   []Edit
		claimed []Slot
	)
	for _, r := range sorted {
		if r.StartLine == nil {
			report.SkippedNoAnchor++
			continue
		}
		if strings.TrimSpace(r.Doc) == "" {
			report.SkippedEmpty++
			continue
		}
		hint0 := max(*r.StartLine-1, 0)

		anchor, ok := locate.FindAnchor(lines, hint0, r.Kind)
		if !ok {
			report.SkippedNoAnchor++
			p.logger.Debug("no anchor", slog.String("symbol", r.FQPath), slog.String("kind", string(r.Kind)), slog.Int("hint", hint0))
			continue
		}

		slot, ok := Resolve(lines, anchor, r.Kind, p.opts.Overwrite)
		if !ok {
			report.SkippedExisting++
			continue
		}
		// a hint that missed its own line can land on a later item's anchor
		if slices.ContainsFunc(claimed, func(c Slot) bool { return c.touches(slot) }) {
			report.SkippedNoAnchor++
			p.logger.Debug("slot already claimed", slog.String("symbol", r.FQPath), slog.String("slot", slot.String()))
			continue
		}
		claimed = append(claimed, slot)

		indentLine := anchor
		switch r.Kind {
		case model.KindStruct:
			indentLine = min(slot.Hi, anchor)
		case model.KindField:
			indentLine = slot.Hi
		}
		target := ""
		if indentLine < len(lines) {
			target = lines[indentLine]
		}

		text := IndentLike(target, r.Doc)
		if r.Kind != model.KindField {
			text = AddLeadingBlankIfNeeded(lines, slot.Lo, text)
		}

		edits = append(edits, Edit{
			Start: starts[min(slot.Lo, len(starts)-1)],
			End:   starts[min(slot.Hi, len(starts)-1)],
			Text:  text,
		})
		report.Edits++
	}
	return edits
}
