package repository

import "time"

// RelationLink ties a local relation code to the identifier the remote side assigned
type RelationLink struct {
	Code     string    `json:"code"`
	RemoteID int64     `json:"remote_id"`
	SyncedAt time.Time `json:"synced_at"`
}

// InvoiceExport records an invoice pushed to the remote bookkeeping
type InvoiceExport struct {
	InvoiceNumber       string    `json:"invoice_number"`
	RelationCode        string    `json:"relation_code"`
	RemoteInvoiceNumber string    `json:"remote_invoice_number"`
	LineCount           int       `json:"line_count"`
	ExportedAt          time.Time `json:"exported_at"`
}
