// Package difftext computes line-level diffs between a file's pre- and
// post-transformation content, using the sergi/go-diff line-diff
// algorithm. The Generic Extractor classifies each changed region this
// produces into an addition, a removal, or a modification; it is the
// package's only caller.
package difftext

import (
	"strings"
	"sync"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineType classifies a single line within a computed diff.
type LineType int

const (
	LineContext LineType = iota
	LineAdded
	LineRemoved
)

// Line is one line of a Hunk, tagged with its type and original line number.
type Line struct {
	LineNum int
	Content string
	Type    LineType
}

// Hunk groups a contiguous run of changed lines together with surrounding
// context, mirroring unified-diff hunk semantics.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// Region classifies a Hunk's overall shape: whether it consists purely of
// additions, purely of removals, or a mix (a modification). The Pattern
// Classifier uses this to feed the confidence formula's shape term.
type Region int

const (
	RegionModification Region = iota
	RegionPureAddition
	RegionPureRemoval
)

// Shape classifies a hunk's diff region.
func (h Hunk) Shape() Region {
	hasAdd, hasRemove := false, false
	for _, l := range h.Lines {
		switch l.Type {
		case LineAdded:
			hasAdd = true
		case LineRemoved:
			hasRemove = true
		}
	}
	switch {
	case hasAdd && !hasRemove:
		return RegionPureAddition
	case hasRemove && !hasAdd:
		return RegionPureRemoval
	default:
		return RegionModification
	}
}

// FileDiff is the diff between one file's old and new content.
type FileDiff struct {
	OldPath  string
	NewPath  string
	Hunks    []Hunk
	IsNew    bool
	IsDelete bool
}

// HasChanges reports whether any hunk contains an addition or removal.
func (f *FileDiff) HasChanges() bool {
	for _, h := range f.Hunks {
		for _, l := range h.Lines {
			if l.Type != LineContext {
				return true
			}
		}
	}
	return false
}

// Engine computes diffs with a result cache keyed on the (old, new) pair,
// so repeated layers diffing the same transformation don't redo the work.
type Engine struct {
	dmp   *diffmatchpatch.DiffMatchPatch
	cache sync.Map
}

type cacheKey struct {
	oldHash uint64
	newHash uint64
}

// NewEngine builds a diff engine with the timeout disabled, trading worst
// case latency for exact results on code-sized inputs.
func NewEngine() *Engine {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	return &Engine{dmp: dmp}
}

// DefaultEngine is shared by callers that don't need an isolated cache.
var DefaultEngine = NewEngine()

// ComputeDiff returns the line-level diff between oldContent and newContent.
func (e *Engine) ComputeDiff(oldPath, newPath, oldContent, newContent string) *FileDiff {
	fd := &FileDiff{OldPath: oldPath, NewPath: newPath}
	if oldContent == "" {
		fd.IsNew = true
	}
	if newContent == "" {
		fd.IsDelete = true
	}

	key := cacheKey{hash(oldContent), hash(newContent)}
	if cached, ok := e.cache.Load(key); ok {
		if cachedDiff, ok := cached.(*FileDiff); ok {
			result := *cachedDiff
			result.OldPath, result.NewPath = oldPath, newPath
			return &result
		}
	}

	a, b, lineArray := e.dmp.DiffLinesToChars(oldContent, newContent)
	diffs := e.dmp.DiffMain(a, b, false)
	diffs = e.dmp.DiffCleanupSemantic(diffs)
	diffs = e.dmp.DiffCharsToLines(diffs, lineArray)

	fd.Hunks = e.groupIntoHunks(e.diffsToOperations(diffs), 3)
	e.cache.Store(key, fd)
	return fd
}

// ComputeDiff uses DefaultEngine.
func ComputeDiff(oldPath, newPath, oldContent, newContent string) *FileDiff {
	return DefaultEngine.ComputeDiff(oldPath, newPath, oldContent, newContent)
}

type operation struct {
	typ     LineType
	oldLine int
	newLine int
	content string
}

func (e *Engine) diffsToOperations(diffs []diffmatchpatch.Diff) []operation {
	var ops []operation
	oldLine, newLine := 0, 0

	for _, d := range diffs {
		lines := strings.Split(d.Text, "\n")
		if len(lines) > 0 && lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}
		for _, line := range lines {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				ops = append(ops, operation{LineContext, oldLine, newLine, line})
				oldLine++
				newLine++
			case diffmatchpatch.DiffDelete:
				ops = append(ops, operation{LineRemoved, oldLine, -1, line})
				oldLine++
			case diffmatchpatch.DiffInsert:
				ops = append(ops, operation{LineAdded, -1, newLine, line})
				newLine++
			}
		}
	}
	return ops
}

func (e *Engine) groupIntoHunks(ops []operation, contextLines int) []Hunk {
	if len(ops) == 0 {
		return nil
	}

	var hunks []Hunk
	var current *Hunk
	lastChangeIdx := -1

	for i, op := range ops {
		isChange := op.typ != LineContext
		if isChange {
			if current == nil {
				current = &Hunk{}
				start := i - contextLines
				if start < 0 {
					start = 0
				}
				for j := start; j < i; j++ {
					if ops[j].typ == LineContext {
						current.Lines = append(current.Lines, Line{ops[j].oldLine + 1, ops[j].content, LineContext})
					}
				}
				if start < len(ops) {
					current.OldStart = ops[start].oldLine + 1
					current.NewStart = ops[start].newLine + 1
					if ops[start].oldLine < 0 {
						current.OldStart = 0
					}
					if ops[start].newLine < 0 {
						current.NewStart = 0
					}
				}
			}
			lastChangeIdx = i
		}

		if current != nil {
			lineNum := op.oldLine + 1
			if op.typ == LineAdded {
				lineNum = op.newLine + 1
			}
			current.Lines = append(current.Lines, Line{lineNum, op.content, op.typ})

			if op.typ == LineContext && i-lastChangeIdx > contextLines {
				trimTo := len(current.Lines) - (i - lastChangeIdx - contextLines)
				if trimTo > 0 && trimTo < len(current.Lines) {
					current.Lines = current.Lines[:trimTo]
				}
				computeHunkCounts(current)
				hunks = append(hunks, *current)
				current = nil
			}
		}
	}

	if current != nil && len(current.Lines) > 0 {
		computeHunkCounts(current)
		hunks = append(hunks, *current)
	}
	return hunks
}

func computeHunkCounts(h *Hunk) {
	for _, l := range h.Lines {
		if l.Type == LineRemoved || l.Type == LineContext {
			h.OldCount++
		}
		if l.Type == LineAdded || l.Type == LineContext {
			h.NewCount++
		}
	}
}

func hash(s string) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	h := uint64(offset64)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime64
	}
	return h
}

// ClearCache drops every cached diff result.
func (e *Engine) ClearCache() {
	e.cache = sync.Map{}
}
