package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestDebate_JSONFieldNames(t *testing.T) {
	debate := Debate{
		Date:          strPtr("24.10.2017"),
		Period:        "pp19",
		SittingNumber: intPtr(1),
		Speeches: []Speech{{
			ID:      "ID190100100",
			Speaker: Speaker{Forename: "Anna", Surname: "Muster"},
			Text:    "Guten Tag.",
		}},
	}

	data, err := json.Marshal(debate)
	require.NoError(t, err)

	jsonStr := string(data)
	expectedFields := []string{
		`"date":"24.10.2017"`, `"period":"pp19"`, `"sitting_number":1`, `"speeches"`,
		`"id":"ID190100100"`, `"forename":"Anna"`, `"surname":"Muster"`, `"text":"Guten Tag."`,
	}
	for _, field := range expectedFields {
		assert.Contains(t, jsonStr, field)
	}
}

func TestDebate_AbsentFieldsAreNull(t *testing.T) {
	debate := Debate{
		Period:   "pp20",
		Speeches: []Speech{{ID: "r1", Speaker: Speaker{Forename: "A", Surname: "B"}}},
	}

	data, err := json.Marshal(debate)
	require.NoError(t, err)

	for _, field := range []string{`"date":null`, `"sitting_number":null`, `"party":null`, `"role":null`} {
		assert.Contains(t, string(data), field)
	}
}

func TestNewSpeechDocuments(t *testing.T) {
	debate := &Debate{
		Date:          strPtr("01.02.2022"),
		Period:        "pp20",
		SittingNumber: intPtr(17),
		Speeches: []Speech{
			{ID: "r1", Speaker: Speaker{Forename: "Anna", Surname: "Muster", Party: strPtr("X")}, Text: "eins"},
			{ID: "r2", Speaker: Speaker{Forename: "Bernd", Surname: "Beispiel", Role: strPtr("Präs")}, Text: "zwei"},
		},
	}

	docs := NewSpeechDocuments("20017.json", debate)

	require.Len(t, docs, 2)
	assert.Equal(t, "r1", docs[0].SpeechID)
	assert.Equal(t, "r2", docs[1].SpeechID)
	assert.Equal(t, "pp20", docs[0].Period)
	assert.Equal(t, "20017.json", docs[0].File)
	require.NotNil(t, docs[1].Role)
	assert.Equal(t, "Präs", *docs[1].Role)
	assert.NotEqual(t, docs[0].ID, docs[1].ID)
	assert.Equal(t, GenerateDocumentID("pp20/20017.json#r1"), docs[0].ID)
}

func TestGenerateDocumentID(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"speech key", "pp20/20001.json#ID200100100"},
		{"url", "https://www.bundestag.de/resource/blob/1/20001-data.xml"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := GenerateDocumentID(tt.key)

			assert.NotEmpty(t, id)
			assert.Equal(t, id, GenerateDocumentID(tt.key), "ID should be deterministic")
			assert.Len(t, id, 16)
		})
	}
}

func TestGenerateDocumentID_UniqueForDifferentKeys(t *testing.T) {
	assert.NotEqual(t, GenerateDocumentID("pp20/20001.json#r1"), GenerateDocumentID("pp19/20001.json#r1"))
}
