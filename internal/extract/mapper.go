// Package extract maps sanitized plenary protocols onto debate records.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/mfenderov/plenar/internal/batch"
	"github.com/mfenderov/plenar/pkg/models"
)

var (
	// ErrInvalidQuery is returned by NewMapper for an empty or unparsable query.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrMalformedDocument is returned when a protocol cannot be parsed as XML.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrInvalidSittingNumber is returned when the sitting number is not an integer.
	ErrInvalidSittingNumber = errors.New("invalid sitting number")
)

// Source is one sanitized protocol waiting for extraction.
type Source struct {
	Name    string
	Content string
}

// Mapper evaluates compiled queries against protocols. It holds no per-document
// state and is safe for concurrent use.
type Mapper struct {
	queries      *compiled
	excludeAfter string
}

// NewMapper compiles the queries once.
func NewMapper(q Queries) (*Mapper, error) {
	c, err := q.compile()
	if err != nil {
		return nil, err
	}
	return &Mapper{queries: c, excludeAfter: q.ExcludeAfter}, nil
}

// Extract produces the debate of one sanitized protocol. period is stored on
// the debate as given.
func (m *Mapper) Extract(content, period string) (*models.Debate, error) {
	doc, err := xmlquery.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	debate := &models.Debate{
		Period:   period,
		Speeches: []models.Speech{},
	}

	if n := xmlquery.QuerySelector(doc, m.queries.date); n != nil {
		date := n.InnerText()
		debate.Date = &date
	}

	if n := xmlquery.QuerySelector(doc, m.queries.sittingNumber); n != nil {
		raw := strings.TrimSpace(n.InnerText())
		number, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSittingNumber, raw)
		}
		debate.SittingNumber = &number
	}

	for _, speech := range xmlquery.QuerySelectorAll(doc, m.queries.speech) {
		debate.Speeches = append(debate.Speeches, m.speech(speech))
	}

	return debate, nil
}

// ExtractAll extracts every source concurrently. A failing source does not
// affect the others.
func (m *Mapper) ExtractAll(ctx context.Context, sources []Source, period string) ([]batch.Result[*models.Debate], error) {
	units := make([]batch.Unit[Source], len(sources))
	for i, s := range sources {
		units[i] = batch.Unit[Source]{Label: s.Name, Input: s}
	}

	return batch.Run(ctx, units, func(_ context.Context, s Source) (*models.Debate, error) {
		debate, err := m.Extract(s.Content, period)
		if err != nil {
			slog.Warn("extraction failed", "period", period, "file", s.Name, "error", err)
			return nil, err
		}
		slog.Debug("extracted debate", "period", period, "file", s.Name, "speeches", len(debate.Speeches))
		return debate, nil
	})
}

func (m *Mapper) speech(n *xmlquery.Node) models.Speech {
	var id string
	if idNode := xmlquery.QuerySelector(n, m.queries.speechID); idNode != nil {
		id = idNode.InnerText()
	}

	var role, forenames, surnames, parties valueSet
	if r := xmlquery.QuerySelector(n, m.queries.role); r != nil {
		role.add(r.InnerText())
	}
	collect(n, m.queries.forename, &forenames)
	collect(n, m.queries.surname, &surnames)
	collect(n, m.queries.party, &parties)

	return models.Speech{
		ID: id,
		Speaker: models.Speaker{
			Forename: forenames.join(),
			Surname:  surnames.join(),
			Party:    parties.first(),
			Role:     role.first(),
		},
		Text: m.text(n),
	}
}

// text joins the text nodes of every speech paragraph with newlines.
// Paragraphs directly following an excluded sibling (the presiding officer's
// name block) belong to someone else and are skipped.
func (m *Mapper) text(n *xmlquery.Node) string {
	var lines []string
	for _, p := range xmlquery.QuerySelectorAll(n, m.queries.paragraphs) {
		if m.excludeAfter != "" && previousElementName(p) == m.excludeAfter {
			continue
		}
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == xmlquery.TextNode || c.Type == xmlquery.CharDataNode {
				lines = append(lines, c.Data)
			}
		}
	}
	return strings.Join(lines, "\n")
}

func collect(n *xmlquery.Node, expr *xpath.Expr, dst *valueSet) {
	for _, v := range xmlquery.QuerySelectorAll(n, expr) {
		dst.add(v.InnerText())
	}
}

// previousElementName returns the name of the closest preceding sibling
// element, ignoring text, comments and processing instructions.
func previousElementName(n *xmlquery.Node) string {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == xmlquery.ElementNode {
			return s.Data
		}
	}
	return ""
}
