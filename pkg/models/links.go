package models

import "strings"

// PeriodLinkSet holds the document links discovered for one legislative period.
type PeriodLinkSet struct {
	Period string   `json:"period"`
	Links  []string `json:"links"`
}

// RawDocument is a downloaded protocol before sanitization.
type RawDocument struct {
	SourceURL string
	Content   string
}

// TrailingSegment returns the part of a link after its last slash, the
// document's file name on the portal.
func TrailingSegment(link string) string {
	if i := strings.LastIndex(link, "/"); i >= 0 {
		return link[i+1:]
	}
	return link
}
