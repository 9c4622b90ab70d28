package cmd

import (
	"testing"

	"github.com/mfenderov/plenar/internal/extract"
	"github.com/mfenderov/plenar/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validProtocol = `<dbtplenarprotokoll><vorspann><kopfdaten>` +
	`<sitzungsnr>7</sitzungsnr><datum date="01.02.2022">1. Februar</datum>` +
	`</kopfdaten></vorspann><sitzungsverlauf><rede id="r1">` +
	`<p klasse="redner"><redner><name><vorname>Anna</vorname><nachname>Muster</nachname></name></redner></p>` +
	`<p klasse="J_1">Guten Tag.</p></rede></sitzungsverlauf></dbtplenarprotokoll>`

// invalidProtocol carries a sitting number that is not a number.
const invalidProtocol = `<dbtplenarprotokoll><vorspann><kopfdaten>` +
	`<sitzungsnr>VII</sitzungsnr></kopfdaten></vorspann></dbtplenarprotokoll>`

func newExtractFixture(t *testing.T, protocols map[string]string) (*storage.Files, *extract.Mapper) {
	t.Helper()
	files, err := storage.NewFiles(t.TempDir())
	require.NoError(t, err)
	for name, content := range protocols {
		require.NoError(t, files.PutXML(t.Context(), "pp20", name, content))
	}
	mapper, err := extract.NewMapper(extract.DefaultQueries())
	require.NoError(t, err)
	return files, mapper
}

func TestExtractPeriod_PartialFailureSucceeds(t *testing.T) {
	files, mapper := newExtractFixture(t, map[string]string{
		"20007.xml": validProtocol,
		"20008.xml": invalidProtocol,
	})

	written, total, err := extractPeriod(t.Context(), files, mapper, "pp20", true)
	require.NoError(t, err)
	assert.Equal(t, 1, written)
	assert.Equal(t, 2, total)

	debate, err := files.GetDebate(t.Context(), "pp20", "20007.json")
	require.NoError(t, err)
	require.NotNil(t, debate.SittingNumber)
	assert.Equal(t, 7, *debate.SittingNumber)
	assert.FileExists(t, files.Path("markdown", "pp20", "20007.md"))
}

func TestExtractPeriod_AllProtocolsFailing(t *testing.T) {
	files, mapper := newExtractFixture(t, map[string]string{
		"20008.xml": invalidProtocol,
		"20009.xml": "<dbtplenarprotokoll>",
	})

	written, total, err := extractPeriod(t.Context(), files, mapper, "pp20", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, errNothingExtracted)
	assert.ErrorIs(t, err, extract.ErrInvalidSittingNumber)
	assert.Zero(t, written)
	assert.Equal(t, 2, total)
}

func TestExtractPeriod_EmptyPeriod(t *testing.T) {
	files, mapper := newExtractFixture(t, nil)

	written, total, err := extractPeriod(t.Context(), files, mapper, "pp20", false)
	assert.NoError(t, err)
	assert.Zero(t, written)
	assert.Zero(t, total)
}
