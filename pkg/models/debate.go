package models

// Debate is the structured content of one plenary protocol.
type Debate struct {
	Date          *string  `json:"date"`
	Period        string   `json:"period"`
	SittingNumber *int     `json:"sitting_number"`
	Speeches      []Speech `json:"speeches"`
}

// Speech is one contribution inside a debate.
type Speech struct {
	ID      string  `json:"id"`
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// Speaker attributes a speech. Party and Role are nil when the protocol has no value.
type Speaker struct {
	Forename string  `json:"forename"`
	Surname  string  `json:"surname"`
	Party    *string `json:"party"`
	Role     *string `json:"role"`
}
