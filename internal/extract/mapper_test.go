package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mfenderov/plenar/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMapper(t *testing.T) *Mapper {
	t.Helper()
	m, err := NewMapper(DefaultQueries())
	require.NoError(t, err)
	return m
}

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func ptr[T any](v T) *T { return &v }

// TestExtract_SingleSpeech pins the basic speaker attribution and text rules
func TestExtract_SingleSpeech(t *testing.T) {
	doc := `<dbtplenarprotokoll>
  <vorspann><kopfdaten><sitzungsnr>7</sitzungsnr><datum date="01.02.2022">Dienstag</datum></kopfdaten></vorspann>
  <rede id="ID20700100">
    <p klasse="redner"><redner><name><vorname>Anna</vorname><nachname>Muster</nachname><fraktion>X</fraktion><rolle><rolle_kurz>Präs</rolle_kurz></rolle></name></redner>Anna Muster (X):</p>
    <p klasse="J_1">Guten Tag.</p>
  </rede>
</dbtplenarprotokoll>`

	debate, err := newMapper(t).Extract(doc, "pp20")
	require.NoError(t, err)

	assert.Equal(t, []models.Speech{{
		ID: "ID20700100",
		Speaker: models.Speaker{
			Forename: "Anna",
			Surname:  "Muster",
			Party:    ptr("X"),
			Role:     ptr("Präs"),
		},
		Text: "Guten Tag.",
	}}, debate.Speeches)
	assert.Equal(t, ptr("01.02.2022"), debate.Date)
	assert.Equal(t, ptr(7), debate.SittingNumber)
	assert.Equal(t, "pp20", debate.Period)
}

// TestExtract_Fixture covers compound names, presiding interjections and missing party
func TestExtract_Fixture(t *testing.T) {
	debate, err := newMapper(t).Extract(readFixture(t, "20001.xml"), "pp20")
	require.NoError(t, err)

	require.NotNil(t, debate.Date)
	assert.Equal(t, "26.10.2021", *debate.Date)
	require.NotNil(t, debate.SittingNumber)
	assert.Equal(t, 1, *debate.SittingNumber)
	require.Len(t, debate.Speeches, 3)

	ids := []string{debate.Speeches[0].ID, debate.Speeches[1].ID, debate.Speeches[2].ID}
	assert.Equal(t, []string{"ID200100100", "ID200100200", "ID200100300"}, ids, "document order")

	second := debate.Speeches[1]
	assert.Equal(t, "Karl Theodor", second.Speaker.Forename, "multiple forenames are joined")
	assert.Equal(t, "Beispiel", second.Speaker.Surname)
	assert.Equal(t, ptr("SPD"), second.Speaker.Party)
	assert.Nil(t, second.Speaker.Role)
	assert.Equal(t,
		"Sehr geehrte Frau Präsidentin!\nMeine Damen und Herren.\nIch komme zum Schluss.",
		second.Text,
		"paragraph right after a name element and non-speech classes are excluded")

	third := debate.Speeches[2]
	assert.Nil(t, third.Speaker.Party)
	assert.Nil(t, third.Speaker.Role)
	assert.Equal(t, "Danke.", third.Text)
}

// TestExtract_ParagraphAfterNameElementExcluded pins the sibling heuristic on its own
func TestExtract_ParagraphAfterNameElementExcluded(t *testing.T) {
	doc := `<protokoll><rede id="r1">
  <name>Vizepräsident Max Beispiel:</name>
  <!-- comment between the name block and the paragraph -->
  <p klasse="J_1">Das Wort hat die Kollegin.</p>
  <p klasse="J">Gesprochener Text.</p>
</rede></protokoll>`

	debate, err := newMapper(t).Extract(doc, "pp19")
	require.NoError(t, err)
	require.Len(t, debate.Speeches, 1)
	assert.Equal(t, "Gesprochener Text.", debate.Speeches[0].Text)
}

// TestExtract_ExcludeAfterDisabled verifies the heuristic is configurable
func TestExtract_ExcludeAfterDisabled(t *testing.T) {
	q := DefaultQueries()
	q.ExcludeAfter = ""
	m, err := NewMapper(q)
	require.NoError(t, err)

	doc := `<protokoll><rede id="r1"><name>Präsident:</name><p klasse="J_1">Eins.</p><p klasse="J">Zwei.</p></rede></protokoll>`

	debate, err := m.Extract(doc, "pp19")
	require.NoError(t, err)
	assert.Equal(t, "Eins.\nZwei.", debate.Speeches[0].Text)
}

// TestExtract_MissingDate verifies absent date is null and the rest is populated
func TestExtract_MissingDate(t *testing.T) {
	doc := `<dbtplenarprotokoll>
  <vorspann><kopfdaten><sitzungsnr>12</sitzungsnr><datum>ohne Attribut</datum></kopfdaten></vorspann>
  <rede id="r1"><p klasse="redner"><redner><name><vorname>Anna</vorname><nachname>Muster</nachname></name></redner></p><p klasse="J">Text.</p></rede>
</dbtplenarprotokoll>`

	debate, err := newMapper(t).Extract(doc, "pp20")
	require.NoError(t, err)

	assert.Nil(t, debate.Date)
	assert.Equal(t, ptr(12), debate.SittingNumber)
	assert.Equal(t, "pp20", debate.Period)
	require.Len(t, debate.Speeches, 1)
	assert.Equal(t, "Anna", debate.Speeches[0].Speaker.Forename)
	assert.Equal(t, "Text.", debate.Speeches[0].Text)
}

// TestExtract_MissingSittingNumber verifies absent sitting number is null
func TestExtract_MissingSittingNumber(t *testing.T) {
	debate, err := newMapper(t).Extract(`<protokoll><kopfdaten/></protokoll>`, "pp20")
	require.NoError(t, err)

	assert.Nil(t, debate.SittingNumber)
	assert.Nil(t, debate.Date)
	assert.Empty(t, debate.Speeches)
	assert.NotNil(t, debate.Speeches, "speeches serialize as an empty list")
}

// TestExtract_SittingNumberWhitespace verifies surrounding whitespace is tolerated
func TestExtract_SittingNumberWhitespace(t *testing.T) {
	debate, err := newMapper(t).Extract(`<p><kopfdaten><sitzungsnr> 42
</sitzungsnr></kopfdaten></p>`, "pp20")
	require.NoError(t, err)
	assert.Equal(t, ptr(42), debate.SittingNumber)
}

// TestExtract_NonNumericSittingNumber verifies the document fails
func TestExtract_NonNumericSittingNumber(t *testing.T) {
	_, err := newMapper(t).Extract(`<p><kopfdaten><sitzungsnr>erste</sitzungsnr></kopfdaten></p>`, "pp20")
	assert.ErrorIs(t, err, ErrInvalidSittingNumber)
}

// TestExtract_Malformed verifies unparsable markup is reported
func TestExtract_Malformed(t *testing.T) {
	_, err := newMapper(t).Extract(`<rede id="x"><p>`, "pp20")
	assert.ErrorIs(t, err, ErrMalformedDocument)
}

// TestExtract_DuplicateSpeechIDsPassThrough verifies ids are not cross-checked
func TestExtract_DuplicateSpeechIDsPassThrough(t *testing.T) {
	doc := `<protokoll><rede id="dup"><p klasse="J">a</p></rede><rede id="dup"><p klasse="J">b</p></rede></protokoll>`

	debate, err := newMapper(t).Extract(doc, "pp20")
	require.NoError(t, err)
	require.Len(t, debate.Speeches, 2)
	assert.Equal(t, "dup", debate.Speeches[0].ID)
	assert.Equal(t, "dup", debate.Speeches[1].ID)
	assert.Equal(t, "b", debate.Speeches[1].Text)
}

// TestExtractAll_FailureIsolated verifies one bad document leaves siblings intact
func TestExtractAll_FailureIsolated(t *testing.T) {
	sources := []Source{
		{Name: "20001.xml", Content: readFixture(t, "20001.xml")},
		{Name: "20002.xml", Content: `<p><kopfdaten><sitzungsnr>zwei</sitzungsnr></kopfdaten></p>`},
		{Name: "20003.xml", Content: `<p><kopfdaten><sitzungsnr>3</sitzungsnr></kopfdaten></p>`},
	}

	results, err := newMapper(t).ExtractAll(t.Context(), sources, "pp20")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSittingNumber)
	assert.Contains(t, err.Error(), "20002.xml")
	require.Len(t, results, 3)
	assert.True(t, results[0].OK())
	assert.False(t, results[1].OK())
	assert.True(t, results[2].OK())
	assert.Equal(t, ptr(3), results[2].Value.SittingNumber)
	assert.Equal(t, "pp20", results[0].Value.Period)
}

func TestNewMapper_InvalidQueries(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Queries)
	}{
		{"empty speech query", func(q *Queries) { q.Speech = "" }},
		{"unparsable date query", func(q *Queries) { q.Date = "//kopfdaten[" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := DefaultQueries()
			tt.modify(&q)
			_, err := NewMapper(q)
			assert.ErrorIs(t, err, ErrInvalidQuery)
		})
	}
}
