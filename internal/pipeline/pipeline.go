package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"neurolint/internal/backup"
	"neurolint/internal/errlog"
	"neurolint/internal/hashutil"
	"neurolint/internal/logging"
)

// sourceExtensions are the file types the pipeline operates on.
var sourceExtensions = map[string]bool{
	".js": true, ".jsx": true, ".ts": true, ".tsx": true, ".mjs": true, ".cjs": true,
}

// FileReport is the per-file outcome of a pipeline run.
type FileReport struct {
	Path         string
	LayerResults []LayerResult
	TotalChanges int
	Wrote        bool
	Skipped      bool
	SkipReason   string
}

// Report aggregates every file processed by one pipeline invocation.
type Report struct {
	Files  []FileReport
	Errors errlog.Summary
}

// Pipeline coordinates ordered layer execution over one or many files.
type Pipeline struct {
	Layers  []Layer
	Backups *backup.Store
	Errors  *errlog.Aggregator
	Opts    Options
}

// New builds a pipeline running layers in the given order, backed by a
// backup store for pre-mutation copies and an error aggregator bounding
// collected diagnostics.
func New(layers []Layer, backups *backup.Store, opts Options) *Pipeline {
	return &Pipeline{
		Layers:  layers,
		Backups: backups,
		Errors:  errlog.New(errlog.DefaultCap, errlog.DefaultCap),
		Opts:    opts,
	}
}

// Run resolves target (a file or a directory) and processes every
// matching source file under it.
func (p *Pipeline) Run(target string) (*Report, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("pipeline: cannot stat target %s: %w", target, err)
	}

	var files []string
	if info.IsDir() {
		files, err = p.collectFiles(target)
		if err != nil {
			return nil, err
		}
	} else {
		files = []string{target}
	}
	sort.Strings(files)

	report := &Report{}
	for _, f := range files {
		report.Files = append(report.Files, p.runFile(f))
	}
	report.Errors = p.Errors.Summarize()
	return report, nil
}

func (p *Pipeline) collectFiles(root string) ([]string, error) {
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			for _, excl := range hashutil.DefaultExclusions {
				if info.Name() == excl {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if sourceExtensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// runFile applies every configured layer, in order, to a single file,
// threading prior LayerResults forward.
func (p *Pipeline) runFile(path string) FileReport {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return FileReport{Path: path, Skipped: true, SkipReason: "not a regular file"}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		p.Errors.AddError(errlog.KindIO, path, err.Error())
		return FileReport{Path: path, Skipped: true, SkipReason: "read failed"}
	}

	current := normalizeLineEndings(string(raw))
	if current == "" {
		return FileReport{Path: path, LayerResults: []LayerResult{EmptyInputResult(0)}}
	}

	var prior []LayerResult
	backedUp := false
	wrote := false
	totalChanges := 0

	for _, layer := range p.Layers {
		result := layer.Transform(current, p.Opts, path, prior)

		if !result.Success {
			logging.Pipeline("layer %s failed on %s: %s", layer.Name(), path, result.Error)
			prior = append(prior, result)
			continue
		}

		if result.ChangeCount > 0 {
			if !p.Opts.DryRun && !backedUp && p.Backups != nil {
				if rec, err := p.Backups.Create(path, layer.ID()); err != nil {
					p.Errors.AddError(errlog.KindIO, path, "backup failed: "+err.Error())
				} else {
					backedUp = true
					result.Results = append(result.Results, Event{Kind: EventBackup, Detail: rec.BackupPath})
				}
			}

			current = result.Code
			totalChanges += result.ChangeCount

			if !p.Opts.DryRun {
				if err := os.WriteFile(path, []byte(current), info.Mode().Perm()); err != nil {
					p.Errors.AddError(errlog.KindIO, path, "write failed: "+err.Error())
				} else {
					wrote = true
					result.Results = append(result.Results, Event{Kind: EventWrite, Detail: path})
				}
			}
		}

		prior = append(prior, result)
	}

	return FileReport{
		Path:         path,
		LayerResults: prior,
		TotalChanges: totalChanges,
		Wrote:        wrote,
	}
}

// normalizeLineEndings converts CRLF/CR to LF so written output always
// carries "\n" line endings.
func normalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return s
}
