package harden

import (
	"fmt"
	"sort"
	"strings"

	"neurolint/internal/astutil"
	"neurolint/internal/logging"
)

// Transformation records one neutralized call site.
type Transformation struct {
	Line         int    `json:"line"`
	FunctionName string `json:"function_name"`
	Original     string `json:"original"`
}

// contaminants are strings quarantine must never introduce that weren't
// already present in the input.
var contaminants = []string{"rm -rf", "format c:", "drop database"}

// Harden performs the 5-step fail-safe quarantine pipeline:
// Parse → Transform → Validate → Test → Apply-or-Revert. On any rejection
// it returns the original source verbatim with success=false,
// reverted=true.
func Harden(path string, source string) (code string, success bool, reverted bool, transforms []Transformation) {
	// Step 1: Parse.
	tree, err := astutil.Parse(path, []byte(source))
	if err != nil {
		logging.HardenDebug("%s: quarantine parse failed, returning original: %v", path, err)
		return source, false, true, nil
	}
	// The call-site nodes below point into this tree, so it stays open
	// until Harden returns.
	defer tree.Close()
	root := tree.Root()
	if root == nil {
		return source, false, true, nil
	}
	sites := findCallSites(root, tree.Source)
	sourceBytes := tree.Source

	if len(sites) == 0 {
		return source, true, false, nil
	}

	// Step 2: Transform. Collect edits first, then splice end-to-start so
	// earlier byte offsets stay valid as later ones are rewritten.
	sort.Slice(sites, func(i, j int) bool { return sites[i].node.StartByte() < sites[j].node.StartByte() })

	type edit struct {
		start, end uint32
		repl       string
	}
	var edits []edit
	var lastEnd uint32
	for _, site := range sites {
		// A dangerous call nested inside one already being rewritten is
		// subsumed by the outer replacement.
		if len(edits) > 0 && site.node.StartByte() < lastEnd {
			continue
		}
		lastEnd = site.node.EndByte()
		original := astutil.Text(site.node, sourceBytes)
		edits = append(edits, edit{
			start: site.node.StartByte(),
			end:   site.node.EndByte(),
			repl:  quarantineReplacement(site.name, original),
		})
		transforms = append(transforms, Transformation{
			Line:         astutil.Line(site.node),
			FunctionName: site.name,
			Original:     original,
		})
	}

	var b strings.Builder
	var cursor uint32
	for _, e := range edits {
		b.WriteString(source[cursor:e.start])
		b.WriteString(e.repl)
		cursor = e.end
	}
	b.WriteString(source[cursor:])
	newCode := b.String()

	// Step 3: Validate: reparse, reject on syntax error.
	retree, err := astutil.Parse(path, []byte(newCode))
	if err != nil {
		logging.HardenWarn("%s: quarantine output failed to reparse, reverting: %v", path, err)
		return source, false, true, nil
	}
	valid := retree.Root() != nil && !retree.Root().HasError()
	retree.Close()
	if !valid {
		logging.HardenWarn("%s: quarantine output has syntax errors, reverting", path)
		return source, false, true, nil
	}

	// Step 4: Size sanity: reject if transformed length < 50% of original.
	if len(source) > 0 && float64(len(newCode)) < 0.5*float64(len(source)) {
		logging.HardenWarn("%s: quarantine output shrank below 50%% of original, reverting", path)
		return source, false, true, nil
	}

	// Step 5: Contamination check.
	lowerNew := strings.ToLower(newCode)
	lowerOld := strings.ToLower(source)
	for _, c := range contaminants {
		if strings.Contains(lowerNew, c) && !strings.Contains(lowerOld, c) {
			logging.HardenWarn("%s: quarantine output introduced contaminant %q, reverting", path, c)
			return source, false, true, nil
		}
	}

	return newCode, true, false, transforms
}

// quarantineReplacement builds the console.error neutralization call used
// in place of a dangerous call/new expression.
func quarantineReplacement(name, original string) string {
	flat := strings.Join(strings.Fields(original), " ")
	if len(flat) > 50 {
		flat = flat[:50]
	}
	flat = strings.ReplaceAll(flat, `"`, `\"`)
	return fmt.Sprintf(`console.error("%s Dangerous function '%s' has been neutralized. Original: %s")`, quarantineMarker, name, flat)
}
