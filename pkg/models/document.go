package models

import (
	"crypto/sha256"
	"encoding/hex"
)

// SpeechDocument is the flattened, indexable form of a single speech.
type SpeechDocument struct {
	ID            string    `json:"id"`
	Period        string    `json:"period"`
	File          string    `json:"file"`
	Date          *string   `json:"date"`
	SittingNumber *int      `json:"sitting_number"`
	SpeechID      string    `json:"speech_id"`
	Forename      string    `json:"forename"`
	Surname       string    `json:"surname"`
	Party         *string   `json:"party"`
	Role          *string   `json:"role"`
	Text          string    `json:"text"`
	Embedding     []float32 `json:"embedding,omitempty"`
}

// NewSpeechDocuments flattens every speech of a debate into index records.
// file is the persisted debate name and takes part in the document ID so that
// equal speech IDs from different sittings never collide.
func NewSpeechDocuments(file string, debate *Debate) []SpeechDocument {
	docs := make([]SpeechDocument, 0, len(debate.Speeches))
	for _, s := range debate.Speeches {
		docs = append(docs, SpeechDocument{
			ID:            GenerateDocumentID(debate.Period + "/" + file + "#" + s.ID),
			Period:        debate.Period,
			File:          file,
			Date:          debate.Date,
			SittingNumber: debate.SittingNumber,
			SpeechID:      s.ID,
			Forename:      s.Speaker.Forename,
			Surname:       s.Speaker.Surname,
			Party:         s.Speaker.Party,
			Role:          s.Speaker.Role,
			Text:          s.Text,
		})
	}
	return docs
}

// GenerateDocumentID creates a deterministic ID from a key.
// The ID is a SHA-256 hash (first 16 chars) of the key.
func GenerateDocumentID(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])[:16]
}
