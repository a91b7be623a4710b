package accounting

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Relation represents a business contact in the remote bookkeeping
type Relation struct {
	ID            int64      `json:"id"`
	AddedAt       time.Time  `json:"added_at"`
	Code          string     `json:"code"`
	Company       string     `json:"company"`
	ContactPerson *string    `json:"contact_person,omitempty"`
	Gender        *string    `json:"gender,omitempty"`
	Address       *string    `json:"address,omitempty"`
	PostalCode    *string    `json:"postal_code,omitempty"`
	City          *string    `json:"city,omitempty"`
	Country       *string    `json:"country,omitempty"`
	Phone         *string    `json:"phone,omitempty"`
	Mobile        *string    `json:"mobile,omitempty"`
	Email         *string    `json:"email,omitempty"`
	Website       *string    `json:"website,omitempty"`
	Note          *string    `json:"note,omitempty"`
	VATNumber     *string    `json:"vat_number,omitempty"`
	Extra         [10]string `json:"extra"`
}

// IsNew reports whether the remote side has not assigned an identity yet.
// Identifiers 0 and 1 are both treated as unassigned.
func (r *Relation) IsNew() bool {
	return r.ID <= 1
}

// Ledger represents a chart-of-accounts entry
type Ledger struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Group       string `json:"group"`
}

// Mutation represents a posted bookkeeping entry
type Mutation struct {
	Number        int64          `json:"number"`
	Kind          string         `json:"kind"`
	Date          time.Time      `json:"date"`
	Account       string         `json:"account"`
	RelationCode  string         `json:"relation_code"`
	InvoiceNumber string         `json:"invoice_number"`
	Voucher       string         `json:"voucher"`
	Description   string         `json:"description"`
	PaymentTerm   string         `json:"payment_term"`
	VATMode       string         `json:"vat_mode"`
	Lines         []MutationLine `json:"lines"`
}

// MutationLine represents one amount line of a mutation
type MutationLine struct {
	AmountInput    decimal.Decimal `json:"amount_input"`
	AmountExclVAT  decimal.Decimal `json:"amount_excl_vat"`
	AmountVAT      decimal.Decimal `json:"amount_vat"`
	AmountInclVAT  decimal.Decimal `json:"amount_incl_vat"`
	VATCode        string          `json:"vat_code"`
	VATPercentage  decimal.Decimal `json:"vat_percentage"`
	CounterAccount string          `json:"counter_account"`
	CostCentreID   int64           `json:"cost_centre_id"`
}

// MutationFilter narrows a mutation listing. Zero values mean "no constraint".
type MutationFilter struct {
	Number   int64      `json:"number,omitempty"`
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`
}

// WorkOrder is the local input for an invoice: a header plus billable work
type WorkOrder struct {
	InvoiceNumber string         `json:"invoice_number"`
	RelationCode  string         `json:"relation_code"`
	Description   string         `json:"description"`
	TaxCode       string         `json:"tax_code"`
	LedgerCode    string         `json:"ledger_code"`
	Hours         []HourEntry    `json:"hours"`
	Products      []ProductEntry `json:"products"`
}

// HourEntry is a time-based invoice line
type HourEntry struct {
	Hours        decimal.Decimal `json:"hours"`
	PricePerHour decimal.Decimal `json:"price_per_hour"`
	WorkDate     time.Time       `json:"work_date"`
}

// workDateLayout is the date-only form accepted for HourEntry.WorkDate
const workDateLayout = "2006-01-02"

// UnmarshalJSON accepts work_date as YYYY-MM-DD or as an RFC 3339 timestamp.
func (h *HourEntry) UnmarshalJSON(data []byte) error {
	type plain HourEntry
	aux := struct {
		*plain
		WorkDate string `json:"work_date"`
	}{plain: (*plain)(h)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.WorkDate == "" {
		h.WorkDate = time.Time{}
		return nil
	}

	t, err := time.Parse(workDateLayout, aux.WorkDate)
	if err != nil {
		t, err = time.Parse(time.RFC3339, aux.WorkDate)
	}
	if err != nil {
		return fmt.Errorf("work_date: expected YYYY-MM-DD or RFC 3339 timestamp, got %q", aux.WorkDate)
	}
	h.WorkDate = t
	return nil
}

// ProductEntry is a quantity-based invoice line
type ProductEntry struct {
	Amount          decimal.Decimal `json:"amount"`
	Code            string          `json:"code"`
	Description     string          `json:"description"`
	SellPricePerOne decimal.Decimal `json:"sell_price_per_one"`
}

// LineCount returns the number of invoice lines the order produces.
func (w *WorkOrder) LineCount() int {
	return len(w.Hours) + len(w.Products)
}
