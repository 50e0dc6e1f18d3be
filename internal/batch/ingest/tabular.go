// Package ingest parses lead lists out of uploaded spreadsheets. It maps the
// messy header vocabulary real files use onto the lead fields and tolerates
// ragged rows.
package ingest

import (
	"encoding/csv"
	"io"
	"strings"

	"callgenie_backend/platform/apperr"

	"github.com/xuri/excelize/v2"
)

// Row is one lead row as read from the file, raw text in every field.
type Row struct {
	Name        string
	Email       string
	PhoneNumber string
	Address     string
}

// Result is the outcome of one file parse.
type Result struct {
	Leads       []Row
	RowsSkipped int // data rows without a usable phone cell
}

// Column header aliases, matched after lowercasing and stripping everything
// that is not a letter or digit.
var (
	phoneAliases = map[string]struct{}{
		"phno": {}, "phone": {}, "phonenumber": {}, "mobile": {},
	}
	addressAliases = map[string]struct{}{
		"addr": {}, "address": {}, "location": {}, "propertyaddress": {},
		"street": {}, "streetaddress": {},
	}
	nameAliases = map[string]struct{}{
		"name": {}, "fullname": {}, "contact": {}, "contactname": {},
	}
	emailAliases = map[string]struct{}{
		"email": {}, "emailaddress": {}, "mail": {},
	}
)

// Parse dispatches on the file extension.
func Parse(filename string, r io.Reader) (Result, error) {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".csv"):
		return ParseCSV(r)
	case strings.HasSuffix(lower, ".xlsx"), strings.HasSuffix(lower, ".xls"):
		return ParseXLSX(r)
	default:
		return Result{}, apperr.Validation("unsupported file type, expected .csv or .xlsx")
	}
}

// ParseCSV reads a comma separated lead list.
func ParseCSV(r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindValidation, "could not read csv file", err)
	}
	return fromRows(rows)
}

// ParseXLSX reads the first sheet of an Excel workbook.
func ParseXLSX(r io.Reader) (Result, error) {
	workbook, err := excelize.OpenReader(r)
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindValidation, "could not read spreadsheet", err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return Result{}, apperr.Validation("spreadsheet has no sheets")
	}

	rows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindValidation, "could not read spreadsheet", err)
	}
	return fromRows(rows)
}

func fromRows(rows [][]string) (Result, error) {
	if len(rows) == 0 {
		return Result{}, apperr.Validation("file is empty")
	}

	cols := mapHeader(rows[0])
	if cols.phone < 0 {
		return Result{}, apperr.Validation("no phone column found, expected a header like phone, phno, phonenumber, or mobile")
	}

	var result Result
	for _, row := range rows[1:] {
		phoneRaw := cell(row, cols.phone)
		if strings.TrimSpace(phoneRaw) == "" {
			if !rowEmpty(row) {
				result.RowsSkipped++
			}
			continue
		}

		result.Leads = append(result.Leads, Row{
			Name:        strings.TrimSpace(cell(row, cols.name)),
			Email:       strings.TrimSpace(cell(row, cols.email)),
			PhoneNumber: phoneRaw,
			Address:     strings.TrimSpace(cell(row, cols.address)),
		})
	}

	return result, nil
}

type columns struct {
	name, email, phone, address int
}

func mapHeader(header []string) columns {
	cols := columns{name: -1, email: -1, phone: -1, address: -1}
	for i, raw := range header {
		key := normalizeHeader(raw)
		switch {
		case cols.phone < 0 && inSet(key, phoneAliases):
			cols.phone = i
		case cols.address < 0 && inSet(key, addressAliases):
			cols.address = i
		case cols.email < 0 && inSet(key, emailAliases):
			cols.email = i
		case cols.name < 0 && inSet(key, nameAliases):
			cols.name = i
		}
	}
	return cols
}

func normalizeHeader(raw string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return -1
		}
	}, raw)
}

func inSet(key string, set map[string]struct{}) bool {
	_, ok := set[key]
	return ok
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

func rowEmpty(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
