// Package storage persists harvested protocols and their extracted debates,
// either as period-scoped local files or as objects in a MinIO/S3 bucket.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/mfenderov/plenar/pkg/models"
)

// ErrNotFound is returned when a requested debate does not exist.
var ErrNotFound = errors.New("not found")

// Sink receives the artifacts of one harvested period.
type Sink interface {
	PutXML(ctx context.Context, period, name, content string) error
	PutDebate(ctx context.Context, period, name string, debate *models.Debate) error
	PutMarkdown(ctx context.Context, period, name, content string) error
}

// Source reads extracted debates back.
type Source interface {
	ListPeriods(ctx context.Context) ([]string, error)
	ListDebates(ctx context.Context, period string) ([]string, error)
	GetDebate(ctx context.Context, period, name string) (*models.Debate, error)
}

// DataSuffix is the token the portal appends to protocol file names.
const DataSuffix = "-data"

// FileName derives the persisted name of a document from its source URL:
// the trailing path segment with DataSuffix removed.
func FileName(sourceURL string) string {
	return strings.ReplaceAll(models.TrailingSegment(sourceURL), DataSuffix, "")
}

// WithExt replaces the extension of name.
func WithExt(name, ext string) string {
	return strings.TrimSuffix(name, path.Ext(name)) + ext
}

// EncodeDebate renders a debate as 4-space indented UTF-8 JSON without
// escaping HTML or non-ASCII characters.
func EncodeDebate(debate *models.Debate) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(debate); err != nil {
		return nil, fmt.Errorf("failed to encode debate: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeDebate(data []byte) (*models.Debate, error) {
	var debate models.Debate
	if err := json.Unmarshal(data, &debate); err != nil {
		return nil, fmt.Errorf("failed to decode debate: %w", err)
	}
	return &debate, nil
}

// Multi fans writes out to several sinks. Every sink is attempted; the
// returned error joins their failures.
type Multi []Sink

func (m Multi) PutXML(ctx context.Context, period, name, content string) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.PutXML(ctx, period, name, content))
	}
	return errors.Join(errs...)
}

func (m Multi) PutDebate(ctx context.Context, period, name string, debate *models.Debate) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.PutDebate(ctx, period, name, debate))
	}
	return errors.Join(errs...)
}

func (m Multi) PutMarkdown(ctx context.Context, period, name, content string) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.PutMarkdown(ctx, period, name, content))
	}
	return errors.Join(errs...)
}
