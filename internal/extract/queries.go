package extract

import (
	"fmt"

	"github.com/antchfx/xpath"
)

// Queries holds the structural queries evaluated against a protocol.
// Speech-relative queries are evaluated with the speech element as context.
type Queries struct {
	Date          string `mapstructure:"date"`
	SittingNumber string `mapstructure:"sitting_number"`
	Speech        string `mapstructure:"speech"`
	SpeechID      string `mapstructure:"speech_id"`
	Paragraphs    string `mapstructure:"paragraphs"`
	Role          string `mapstructure:"role"`
	Forename      string `mapstructure:"forename"`
	Surname       string `mapstructure:"surname"`
	Party         string `mapstructure:"party"`

	// ExcludeAfter names the sibling element whose immediately following
	// paragraphs are not speech text. Empty disables the check.
	ExcludeAfter string `mapstructure:"exclude_after"`
}

// DefaultQueries matches the dbtplenarprotokoll format used since the 19th period.
func DefaultQueries() Queries {
	return Queries{
		Date:          "//kopfdaten//datum/@date",
		SittingNumber: "//kopfdaten//sitzungsnr/text()",
		Speech:        "//rede",
		SpeechID:      "@id",
		Paragraphs:    ".//p[contains(@klasse, 'J')]",
		Role:          ".//name//rolle_kurz/text()",
		Forename:      ".//name/vorname/text()",
		Surname:       ".//name/nachname/text()",
		Party:         ".//name/fraktion/text()",
		ExcludeAfter:  "name",
	}
}

type compiled struct {
	date          *xpath.Expr
	sittingNumber *xpath.Expr
	speech        *xpath.Expr
	speechID      *xpath.Expr
	paragraphs    *xpath.Expr
	role          *xpath.Expr
	forename      *xpath.Expr
	surname       *xpath.Expr
	party         *xpath.Expr
}

func (q Queries) compile() (*compiled, error) {
	c := &compiled{}
	targets := []struct {
		name string
		expr string
		dst  **xpath.Expr
	}{
		{"date", q.Date, &c.date},
		{"sitting_number", q.SittingNumber, &c.sittingNumber},
		{"speech", q.Speech, &c.speech},
		{"speech_id", q.SpeechID, &c.speechID},
		{"paragraphs", q.Paragraphs, &c.paragraphs},
		{"role", q.Role, &c.role},
		{"forename", q.Forename, &c.forename},
		{"surname", q.Surname, &c.surname},
		{"party", q.Party, &c.party},
	}
	for _, t := range targets {
		if t.expr == "" {
			return nil, fmt.Errorf("%w: %s query is empty", ErrInvalidQuery, t.name)
		}
		expr, err := xpath.Compile(t.expr)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidQuery, t.name, err)
		}
		*t.dst = expr
	}
	return c, nil
}
