package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mfenderov/plenar/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.bundestag.de/resource/blob/866350/20137-data.xml", "20137.xml"},
		{"https://example.org/20001.xml", "20001.xml"},
		{"20002-data.xml", "20002.xml"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FileName(tt.url), tt.url)
	}
}

func TestWithExt(t *testing.T) {
	assert.Equal(t, "20137.json", WithExt("20137.xml", ".json"))
	assert.Equal(t, "20137.md", WithExt("20137", ".md"))
}

func TestEncodeDebate(t *testing.T) {
	debate := &models.Debate{
		Period: "pp20",
		Speeches: []models.Speech{{
			ID:      "ID1",
			Speaker: models.Speaker{Forename: "Jörg", Surname: "Müller"},
			Text:    "Größe & <Maß>",
		}},
	}

	data, err := EncodeDebate(debate)
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "\n    \"date\": null,")
	assert.Contains(t, out, `"sitting_number": null`)
	assert.Contains(t, out, `"party": null`)
	assert.Contains(t, out, "Jörg")
	assert.Contains(t, out, "Größe & <Maß>")
	assert.NotContains(t, out, `\u`)
}

func TestFiles_RoundTrip(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	files, err := NewFiles(root)
	require.NoError(t, err)

	num := 1
	debate := &models.Debate{Period: "pp20", SittingNumber: &num, Speeches: []models.Speech{}}

	require.NoError(t, files.PutXML(ctx, "pp20", "20001.xml", "<x/>"))
	require.NoError(t, files.PutDebate(ctx, "pp20", "20001.xml", debate))
	require.NoError(t, files.PutMarkdown(ctx, "pp20", "20001.xml", "# Sitzung"))

	assert.FileExists(t, filepath.Join(root, "xml", "pp20", "20001.xml"))
	assert.FileExists(t, filepath.Join(root, "json", "pp20", "20001.json"))
	assert.FileExists(t, filepath.Join(root, "markdown", "pp20", "20001.md"))

	raw, err := os.ReadFile(filepath.Join(root, "json", "pp20", "20001.json"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "{\n    \""))

	got, err := files.GetDebate(ctx, "pp20", "20001.json")
	require.NoError(t, err)
	assert.Equal(t, debate, got)

	xml, err := files.GetXML(ctx, "pp20", "20001.xml")
	require.NoError(t, err)
	assert.Equal(t, "<x/>", xml)

	periods, err := files.ListPeriods(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"pp20"}, periods)

	names, err := files.ListDebates(ctx, "pp20")
	require.NoError(t, err)
	assert.Equal(t, []string{"20001.json"}, names)

	xmls, err := files.ListXML(ctx, "pp20")
	require.NoError(t, err)
	assert.Equal(t, []string{"20001.xml"}, xmls)
}

func TestFiles_Missing(t *testing.T) {
	ctx := context.Background()
	files, err := NewFiles(t.TempDir())
	require.NoError(t, err)

	_, err = files.GetDebate(ctx, "pp19", "19001.json")
	assert.True(t, errors.Is(err, ErrNotFound))

	names, err := files.ListDebates(ctx, "pp19")
	require.NoError(t, err)
	assert.Empty(t, names)

	periods, err := files.ListPeriods(ctx)
	require.NoError(t, err)
	assert.Empty(t, periods)
}

type failingSink struct{ err error }

func (f failingSink) PutXML(context.Context, string, string, string) error { return f.err }
func (f failingSink) PutDebate(context.Context, string, string, *models.Debate) error {
	return f.err
}
func (f failingSink) PutMarkdown(context.Context, string, string, string) error { return f.err }

func TestMulti_AttemptsEverySink(t *testing.T) {
	files, err := NewFiles(t.TempDir())
	require.NoError(t, err)
	boom := errors.New("bucket unreachable")

	err = Multi{failingSink{boom}, files}.PutXML(context.Background(), "pp20", "1.xml", "<x/>")
	assert.ErrorIs(t, err, boom)
	assert.FileExists(t, files.Path("xml", "pp20", "1.xml"))
}
