// Package formfill holds the data contract between uploaded spreadsheets and
// the Letter of Representation PDF template.
package formfill

import (
	"path/filepath"
	"strings"
)

// Field names shared by the spreadsheet columns and the template's form
// fields. Renaming a field in the template requires changing it here.
const (
	FieldDate             = "date"
	FieldRecipientName    = "recipient_name"
	FieldRecipientAddress = "recipient_address"
	FieldCaseNumber       = "case_number"
	FieldClientName       = "client_name"
	FieldClientNameInline = "client_name_inline"
	FieldAttorneyName     = "attorney_name"
	FieldBarNumber        = "bar_number"
	FieldLawFirm          = "law_firm"
	FieldAttorneyAddress  = "attorney_address"
	FieldPhone            = "phone"
	FieldEmail            = "email"
)

// FieldNames lists every form field the service fills, in template order.
var FieldNames = []string{
	FieldDate,
	FieldRecipientName,
	FieldRecipientAddress,
	FieldCaseNumber,
	FieldClientName,
	FieldClientNameInline,
	FieldAttorneyName,
	FieldBarNumber,
	FieldLawFirm,
	FieldAttorneyAddress,
	FieldPhone,
	FieldEmail,
}

// SpreadsheetExtensions are the upload suffixes accepted by the fill endpoint.
var SpreadsheetExtensions = []string{".xlsx", ".xls"}

// Record is one spreadsheet row keyed by column header.
type Record map[string]string

// Get returns the value for field, or "" when the column was absent.
func (r Record) Get(field string) string {
	if r == nil {
		return ""
	}
	return r[field]
}

// Values returns exactly the twelve template fields, defaulting missing
// columns to the empty string. Extra spreadsheet columns are dropped.
func (r Record) Values() map[string]string {
	values := make(map[string]string, len(FieldNames))
	for _, name := range FieldNames {
		values[name] = r.Get(name)
	}
	return values
}

// IsSpreadsheet reports whether filename carries a recognized spreadsheet
// extension. The comparison ignores case.
func IsSpreadsheet(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range SpreadsheetExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
