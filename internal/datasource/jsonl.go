package datasource

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/treeview/pkg/model"
)

// DefaultMaxLineSize is the longest line ParseJSONL accepts (16MB). A whole
// subtree lives on one line, so this is generous.
const DefaultMaxLineSize = 16 * 1024 * 1024

// JSONLOptions configures ParseJSONL.
type JSONLOptions struct {
	// MaxLineSize overrides DefaultMaxLineSize
	MaxLineSize int
	// Warn receives a message for every skipped line; defaults to stderr,
	// silenced when TREEVIEW_ROBOT=1
	Warn func(msg string)
}

// ParseJSONL reads one root node per line. Blank lines are ignored;
// malformed or oversized lines are skipped with a warning.
func ParseJSONL(r io.Reader, opts JSONLOptions) ([]model.TreeNode, error) {
	maxSize := opts.MaxLineSize
	if maxSize <= 0 {
		maxSize = DefaultMaxLineSize
	}
	warn := opts.Warn
	if warn == nil {
		if os.Getenv("TREEVIEW_ROBOT") == "1" {
			warn = func(string) {}
		} else {
			warn = func(msg string) {
				fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
			}
		}
	}

	reader := bufio.NewReaderSize(r, maxSize)
	var roots []model.TreeNode
	lineNum := 0
	for {
		lineNum++
		line, isPrefix, err := reader.ReadLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", lineNum, err)
		}

		if isPrefix {
			warn(fmt.Sprintf("skipping line %d: line too long (exceeds %d bytes)", lineNum, maxSize))
			for isPrefix {
				_, isPrefix, err = reader.ReadLine()
				if err == io.EOF {
					break
				}
				if err != nil {
					return nil, fmt.Errorf("skipping long line %d: %w", lineNum, err)
				}
			}
			continue
		}

		if lineNum == 1 {
			line = stripBOM(line)
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var node model.TreeNode
		if err := json.Unmarshal(line, &node); err != nil {
			warn(fmt.Sprintf("skipping malformed JSON on line %d: %v", lineNum, err))
			continue
		}
		roots = append(roots, node)
	}
	return roots, nil
}

// WriteJSONL writes one root node per line.
func WriteJSONL(w io.Writer, roots []model.TreeNode) error {
	bw := bufio.NewWriter(w)
	for _, root := range roots {
		line, err := json.Marshal(root)
		if err != nil {
			return fmt.Errorf("encoding %q: %w", root.ID, err)
		}
		bw.Write(line)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// stripBOM removes the UTF-8 Byte Order Mark if present
func stripBOM(b []byte) []byte {
	if bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
		return b[3:]
	}
	return b
}
