// Package files discovers and samples the input files a workflow may draw
// from: structured CSV tables and unstructured Markdown/plain-text documents.
package files

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agentic-kg-poc/server/internal/agent/model"
	errx "github.com/agentic-kg-poc/server/internal/core/error"
	logx "github.com/agentic-kg-poc/server/pkg/logger"
)

const (
	// sampleLines bounds the content preview taken per candidate.
	sampleLines = 5
	// sampleMaxBytes bounds the preview size regardless of line count.
	sampleMaxBytes = 2048
)

// Discover walks dir and returns one candidate per recognised input file,
// annotated with its detected kind and a small content sample. Paths are
// relative to dir and sorted for stable suggestion ordering.
func Discover(dir string) ([]model.FileCandidate, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errx.Wrap(errx.KindNotFound, fmt.Sprintf("input directory %s", dir), err)
	}
	if !info.IsDir() {
		return nil, errx.Validation("invalid input directory", fmt.Sprintf("%s is not a directory", dir))
	}

	var candidates []model.FileCandidate
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		kind, ok := detectKind(path)
		if !ok {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		c := model.FileCandidate{Path: rel, Kind: kind}
		if err := annotate(&c, path); err != nil {
			// A single unreadable file should not hide the rest.
			logx.Warn().Err(err).Str("path", rel).Msg("skipping unreadable candidate")
			return nil
		}
		candidates = append(candidates, c)
		return nil
	})
	if err != nil {
		return nil, errx.Wrap(errx.KindBackend, fmt.Sprintf("walking input directory %s", dir), err)
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Path < candidates[j].Path })
	return candidates, nil
}

func detectKind(path string) (model.FileKind, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return model.FileStructured, true
	case ".md", ".txt":
		return model.FileUnstructured, true
	default:
		return "", false
	}
}

// annotate fills in the sample content and, for structured files, the
// header columns.
func annotate(c *model.FileCandidate, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if c.Kind == model.FileStructured {
		r := csv.NewReader(f)
		header, err := r.Read()
		if err != nil {
			return fmt.Errorf("read header: %w", err)
		}
		for i := range header {
			header[i] = strings.TrimSpace(header[i])
		}
		c.Columns = header

		var preview strings.Builder
		preview.WriteString(strings.Join(header, ","))
		for i := 0; i < sampleLines; i++ {
			row, err := r.Read()
			if err != nil {
				break
			}
			preview.WriteString("\n")
			preview.WriteString(strings.Join(row, ","))
		}
		c.Sample = truncate(preview.String(), sampleMaxBytes)
		return nil
	}

	scanner := bufio.NewScanner(f)
	var preview strings.Builder
	for i := 0; i < sampleLines && scanner.Scan(); i++ {
		if i > 0 {
			preview.WriteString("\n")
		}
		preview.WriteString(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	c.Sample = truncate(preview.String(), sampleMaxBytes)
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
