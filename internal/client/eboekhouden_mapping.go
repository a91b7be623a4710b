package client

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pesio-ai/be-gl-eboekhouden/internal/accounting"
)

const (
	// remoteTimeLayout is ISO 8601 with a numeric offset, as the service expects
	remoteTimeLayout = "2006-01-02T15:04:05-07:00"
	workDateLayout   = "02-01-2006"

	hourUnit    = "Uur"
	hourCode    = "1"
	productUnit = "Stuk"
)

// Defaults used when the caller leaves a mutation date range open
var (
	mutationsEpochStart = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	mutationsEpochEnd   = time.Date(2050, 12, 31, 23, 59, 59, 0, time.UTC)
)

// InvoiceDefaults are the configured header values applied to every invoice
type InvoiceDefaults struct {
	PaymentTerm      int
	Template         string
	EmailFromAddress string
	EmailFromName    string
}

// buildInvoice maps a work order onto the remote invoice schema.
// Hour lines come first, then product lines, each group in input order.
func buildInvoice(order *accounting.WorkOrder, defaults InvoiceDefaults, now time.Time) factuur {
	lines := make([]factuurRegel, 0, order.LineCount())

	for _, h := range order.Hours {
		lines = append(lines, factuurRegel{
			Aantal:            h.Hours.String(),
			Eenheid:           hourUnit,
			Code:              hourCode,
			Omschrijving:      "Gewerkte uren, " + h.WorkDate.Format(workDateLayout),
			PrijsPerEenheid:   h.PricePerHour.String(),
			BTWCode:           order.TaxCode,
			TegenrekeningCode: order.LedgerCode,
			KostenplaatsID:    0,
		})
	}

	for _, p := range order.Products {
		lines = append(lines, factuurRegel{
			Aantal:            p.Amount.String(),
			Eenheid:           productUnit,
			Code:              p.Code,
			Omschrijving:      p.Description,
			PrijsPerEenheid:   p.SellPricePerOne.StringFixed(2),
			BTWCode:           order.TaxCode,
			TegenrekeningCode: order.LedgerCode,
			KostenplaatsID:    0,
		})
	}

	// Direct debit is not supported; its fields are sent disabled.
	return factuur{
		Factuurnummer:                       order.InvoiceNumber,
		Relatiecode:                         order.RelationCode,
		Datum:                               now.Format(remoteTimeLayout),
		Betalingstermijn:                    defaults.PaymentTerm,
		Factuursjabloon:                     defaults.Template,
		PerEmailVerzenden:                   0,
		EmailVanAdres:                       defaults.EmailFromAddress,
		EmailVanNaam:                        defaults.EmailFromName,
		AutomatischeIncasso:                 0,
		IncassoMachtigingDatumOndertekening: mutationsEpochStart.Format(remoteTimeLayout),
		IncassoMachtigingFirst:              0,
		InBoekhoudingPlaatsen:               1,
		BoekhoudmutatieOmschrijving:         order.Description,
		Regels:                              lines,
	}
}

// buildRelation maps a relation onto the remote schema. New relations are
// sent with ID 0 so the remote side assigns one.
func buildRelation(rel *accounting.Relation) relatie {
	id := rel.ID
	if rel.IsNew() {
		id = 0
	}

	addedAt := rel.AddedAt
	if addedAt.IsZero() {
		addedAt = mutationsEpochStart
	}

	// Secondary address, banking, newsletter and ledger fields are not
	// populated by this client and go out at their zero values.
	return relatie{
		ID:             id,
		AddDatum:       addedAt.Format(remoteTimeLayout),
		Code:           rel.Code,
		Bedrijf:        rel.Company,
		Contactpersoon: deref(rel.ContactPerson),
		Geslacht:       deref(rel.Gender),
		Adres:          deref(rel.Address),
		Postcode:       deref(rel.PostalCode),
		Plaats:         deref(rel.City),
		Land:           deref(rel.Country),
		Telefoon:       deref(rel.Phone),
		GSM:            deref(rel.Mobile),
		Email:          deref(rel.Email),
		Site:           deref(rel.Website),
		Notitie:        deref(rel.Note),
		BTWNummer:      deref(rel.VATNumber),
		Def1:           rel.Extra[0],
		Def2:           rel.Extra[1],
		Def3:           rel.Extra[2],
		Def4:           rel.Extra[3],
		Def5:           rel.Extra[4],
		Def6:           rel.Extra[5],
		Def7:           rel.Extra[6],
		Def8:           rel.Extra[7],
		Def9:           rel.Extra[8],
		Def10:          rel.Extra[9],
	}
}

func relationFromRemote(r relatie) accounting.Relation {
	return accounting.Relation{
		ID:            r.ID,
		AddedAt:       parseRemoteTime(r.AddDatum),
		Code:          r.Code,
		Company:       r.Bedrijf,
		ContactPerson: optional(r.Contactpersoon),
		Gender:        optional(r.Geslacht),
		Address:       optional(r.Adres),
		PostalCode:    optional(r.Postcode),
		City:          optional(r.Plaats),
		Country:       optional(r.Land),
		Phone:         optional(r.Telefoon),
		Mobile:        optional(r.GSM),
		Email:         optional(r.Email),
		Website:       optional(r.Site),
		Note:          optional(r.Notitie),
		VATNumber:     optional(r.BTWNummer),
		Extra: [10]string{
			r.Def1, r.Def2, r.Def3, r.Def4, r.Def5,
			r.Def6, r.Def7, r.Def8, r.Def9, r.Def10,
		},
	}
}

func ledgerFromRemote(g grootboekrekening) accounting.Ledger {
	return accounting.Ledger{
		ID:          g.ID,
		Code:        g.Code,
		Description: g.Omschrijving,
		Category:    g.Categorie,
		Group:       g.Groep,
	}
}

func mutationFromRemote(m mutatie) accounting.Mutation {
	lines := make([]accounting.MutationLine, 0, len(m.Regels))
	for _, r := range m.Regels {
		lines = append(lines, accounting.MutationLine{
			AmountInput:    parseDecimal(r.BedragInvoer),
			AmountExclVAT:  parseDecimal(r.BedragExclBTW),
			AmountVAT:      parseDecimal(r.BedragBTW),
			AmountInclVAT:  parseDecimal(r.BedragInclBTW),
			VATCode:        r.BTWCode,
			VATPercentage:  parseDecimal(r.BTWPercentage),
			CounterAccount: r.TegenrekeningCode,
			CostCentreID:   r.KostenplaatsID,
		})
	}

	return accounting.Mutation{
		Number:        m.MutatieNr,
		Kind:          m.Soort,
		Date:          parseRemoteTime(m.Datum),
		Account:       m.Rekening,
		RelationCode:  m.RelatieCode,
		InvoiceNumber: m.Factuurnummer,
		Voucher:       m.Boekstuk,
		Description:   m.Omschrijving,
		PaymentTerm:   m.Betalingstermijn,
		VATMode:       m.InExBTW,
		Lines:         lines,
	}
}

// mutationsFilterFrom fills open date bounds with the all-time defaults.
// Range and invoice number filters are not supported and stay inert.
func mutationsFilterFrom(filter *accounting.MutationFilter) mutatiesFilter {
	if filter == nil {
		filter = &accounting.MutationFilter{}
	}

	from := mutationsEpochStart
	if filter.DateFrom != nil {
		from = *filter.DateFrom
	}
	to := mutationsEpochEnd
	if filter.DateTo != nil {
		to = *filter.DateTo
	}

	return mutatiesFilter{
		MutatieNr:     filter.Number,
		MutatieNrVan:  0,
		MutatieNrTm:   0,
		Factuurnummer: "",
		DatumVan:      from.Format(remoteTimeLayout),
		DatumTm:       to.Format(remoteTimeLayout),
	}
}

// asList guarantees a non-nil slice for every list-returning operation
func asList[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// mapList converts remote records in order
func mapList[S, T any](items []S, fn func(S) T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var remoteTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseRemoteTime(s string) time.Time {
	for _, layout := range remoteTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
