package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mfenderov/plenar/pkg/models"
)

// Files stores artifacts below a data root:
//
//	<root>/xml/<period>/<name>
//	<root>/json/<period>/<name>.json
//	<root>/markdown/<period>/<name>.md
type Files struct {
	root string
}

// NewFiles creates a file store rooted at root.
func NewFiles(root string) (*Files, error) {
	if root == "" {
		return nil, fmt.Errorf("data root is required")
	}
	return &Files{root: root}, nil
}

// Root returns the data root.
func (f *Files) Root() string {
	return f.root
}

// Path returns the location of an artifact of the given kind ("xml", "json"
// or "markdown").
func (f *Files) Path(kind, period, name string) string {
	return filepath.Join(f.root, kind, period, name)
}

func (f *Files) write(ctx context.Context, kind, period, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := f.Path(kind, period, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", p, err)
	}
	return nil
}

// PutXML writes a sanitized protocol.
func (f *Files) PutXML(ctx context.Context, period, name, content string) error {
	return f.write(ctx, "xml", period, name, []byte(content))
}

// PutDebate writes a debate as JSON next to its protocol's name.
func (f *Files) PutDebate(ctx context.Context, period, name string, debate *models.Debate) error {
	data, err := EncodeDebate(debate)
	if err != nil {
		return err
	}
	return f.write(ctx, "json", period, WithExt(name, ".json"), data)
}

// PutMarkdown writes a rendered transcript.
func (f *Files) PutMarkdown(ctx context.Context, period, name, content string) error {
	return f.write(ctx, "markdown", period, WithExt(name, ".md"), []byte(content))
}

// ListPeriods returns the periods that have extracted debates.
func (f *Files) ListPeriods(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(f.root, "json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list periods: %w", err)
	}
	var periods []string
	for _, e := range entries {
		if e.IsDir() {
			periods = append(periods, e.Name())
		}
	}
	return periods, nil
}

// ListDebates returns the JSON file names of a period, sorted.
func (f *Files) ListDebates(ctx context.Context, period string) ([]string, error) {
	return f.list("json", period, ".json")
}

// ListXML returns the protocol file names of a period, sorted.
func (f *Files) ListXML(ctx context.Context, period string) ([]string, error) {
	return f.list("xml", period, ".xml")
}

func (f *Files) list(kind, period, ext string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(f.root, kind, period))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s files: %w", kind, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ext) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// GetDebate reads a stored debate.
func (f *Files) GetDebate(ctx context.Context, period, name string) (*models.Debate, error) {
	data, err := os.ReadFile(f.Path("json", period, WithExt(name, ".json")))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("debate %s/%s: %w", period, name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read debate: %w", err)
	}
	return decodeDebate(data)
}

// GetXML reads a stored protocol.
func (f *Files) GetXML(ctx context.Context, period, name string) (string, error) {
	data, err := os.ReadFile(f.Path("xml", period, name))
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("protocol %s/%s: %w", period, name, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read protocol: %w", err)
	}
	return string(data), nil
}
