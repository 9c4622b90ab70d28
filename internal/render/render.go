// Package render turns extracted debates into readable Markdown transcripts.
package render

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/mfenderov/plenar/pkg/models"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Markdown renders a debate as a Markdown transcript: a title, the sitting
// date and one section per speech.
func Markdown(ctx context.Context, debate *models.Debate) (string, error) {
	out, err := htmltomarkdown.ConvertNode(Document(debate), converter.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to render debate: %w", err)
	}
	return strings.TrimSpace(string(out)) + "\n", nil
}

// Document builds the HTML tree of a debate.
func Document(debate *models.Debate) *html.Node {
	body := element(atom.Body)

	body.AppendChild(element(atom.H1, text(Title(debate))))
	if debate.Date != nil {
		body.AppendChild(element(atom.P, element(atom.Strong, text("Datum:")), text(" "+*debate.Date)))
	}

	for _, s := range debate.Speeches {
		body.AppendChild(element(atom.H2, text(SpeakerLine(s.Speaker))))
		if s.Speaker.Role != nil {
			body.AppendChild(element(atom.P, element(atom.Em, text(*s.Speaker.Role))))
		}
		for _, para := range strings.Split(s.Text, "\n") {
			if para = strings.TrimSpace(para); para != "" {
				body.AppendChild(element(atom.P, text(para)))
			}
		}
	}

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(element(atom.Html, body))
	return doc
}

// Title names the sitting.
func Title(debate *models.Debate) string {
	if debate.SittingNumber == nil {
		return "Plenarprotokoll " + debate.Period
	}
	return "Plenarprotokoll " + debate.Period + ", Sitzung " + strconv.Itoa(*debate.SittingNumber)
}

// SpeakerLine formats a speaker as "Forename Surname (Party)".
func SpeakerLine(s models.Speaker) string {
	name := strings.TrimSpace(s.Forename + " " + s.Surname)
	if name == "" {
		name = "Unbekannt"
	}
	if s.Party != nil {
		name += " (" + *s.Party + ")"
	}
	return name
}

func element(a atom.Atom, children ...*html.Node) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
