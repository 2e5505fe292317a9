package model

import "time"

// QuoteStatus tracks the lifecycle of a submitted quote request.
type QuoteStatus string

const (
	QuoteStatusPending   QuoteStatus = "pending"
	QuoteStatusContacted QuoteStatus = "contacted"
	QuoteStatusClosed    QuoteStatus = "closed"
)

// SelectedTypeSnapshot is one line of the breakdown frozen into a quote
// at submission time. Quantities and costs are stored at full precision;
// rounding happens only at display and export.
type SelectedTypeSnapshot struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Cost     float64 `json:"cost"`
}

// QuoteRequest is a lead captured from the calculator. Immutable once
// created, except for admin deletion.
type QuoteRequest struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Email         string                 `json:"email"`
	Company       string                 `json:"company,omitempty"`
	Message       string                 `json:"message,omitempty"`
	SelectedTypes []SelectedTypeSnapshot `json:"selected_types"`
	TotalCost     float64                `json:"total_cost"`
	Status        QuoteStatus            `json:"status"`
	CreatedAt     time.Time              `json:"created_at"`
}
