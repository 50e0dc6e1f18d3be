package ingest

import (
	"bytes"
	"strings"
	"testing"

	"callgenie_backend/platform/apperr"

	"github.com/xuri/excelize/v2"
)

func TestParseCSVHeaderAliases(t *testing.T) {
	cases := []struct {
		header string
	}{
		{"name,phno,addr"},
		{"Name,Phone,Address"},
		{"Full Name,Phone Number,Property Address"},
		{"contact,MOBILE,street address"},
	}

	for _, tc := range cases {
		csvText := tc.header + "\nJane,555-123-4567,12 Elm St\n"
		result, err := ParseCSV(strings.NewReader(csvText))
		if err != nil {
			t.Fatalf("header %q: %v", tc.header, err)
		}
		if len(result.Leads) != 1 {
			t.Fatalf("header %q: expected 1 lead, got %d", tc.header, len(result.Leads))
		}
		lead := result.Leads[0]
		if lead.Name != "Jane" || lead.PhoneNumber != "555-123-4567" || lead.Address != "12 Elm St" {
			t.Fatalf("header %q: unexpected lead %+v", tc.header, lead)
		}
	}
}

func TestParseCSVMapsEmailColumn(t *testing.T) {
	cases := []string{
		"name,email,phone",
		"Name,E-Mail,Phone",
		"contact,Email Address,mobile",
	}

	for _, header := range cases {
		csvText := header + "\nJane,jane@example.com,555-123-4567\n"
		result, err := ParseCSV(strings.NewReader(csvText))
		if err != nil {
			t.Fatalf("header %q: %v", header, err)
		}
		if len(result.Leads) != 1 {
			t.Fatalf("header %q: expected 1 lead, got %d", header, len(result.Leads))
		}
		if result.Leads[0].Email != "jane@example.com" {
			t.Fatalf("header %q: expected email carried through, got %q", header, result.Leads[0].Email)
		}
	}
}

func TestParseCSVSkipsRowsWithoutPhone(t *testing.T) {
	csvText := "name,phone\nJane,555-111-2222\nNoPhone,\n,\nBob,555-333-4444\n"
	result, err := ParseCSV(strings.NewReader(csvText))
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}
	if len(result.Leads) != 2 {
		t.Fatalf("expected 2 leads, got %d", len(result.Leads))
	}
	// The fully blank row does not count as skipped, the row that has a name
	// but no phone does.
	if result.RowsSkipped != 1 {
		t.Fatalf("expected 1 skipped row, got %d", result.RowsSkipped)
	}
}

func TestParseCSVNoPhoneColumn(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("name,email\nJane,j@example.com\n"))
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseCSVRaggedRows(t *testing.T) {
	csvText := "name,phone,address\nJane,555-111-2222\nBob,555-333-4444,9 Oak Ave,extra\n"
	result, err := ParseCSV(strings.NewReader(csvText))
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}
	if len(result.Leads) != 2 {
		t.Fatalf("expected 2 leads, got %d", len(result.Leads))
	}
	if result.Leads[0].Address != "" {
		t.Fatalf("short row should have empty address, got %q", result.Leads[0].Address)
	}
	if result.Leads[1].Address != "9 Oak Ave" {
		t.Fatalf("unexpected address %q", result.Leads[1].Address)
	}
}

func TestParseXLSX(t *testing.T) {
	workbook := excelize.NewFile()
	sheet := workbook.GetSheetName(0)
	rows := [][]interface{}{
		{"Name", "Phone Number", "Address"},
		{"Jane", "555-123-4567", "12 Elm St"},
		{"", "555-987-6543", ""},
		{"NoPhone", "", "1 Pine Rd"},
	}
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := workbook.SetSheetRow(sheet, cellRef, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := workbook.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	result, err := ParseXLSX(&buf)
	if err != nil {
		t.Fatalf("ParseXLSX failed: %v", err)
	}
	if len(result.Leads) != 2 {
		t.Fatalf("expected 2 leads, got %d", len(result.Leads))
	}
	if result.Leads[0].PhoneNumber != "555-123-4567" {
		t.Fatalf("unexpected phone %q", result.Leads[0].PhoneNumber)
	}
	if result.RowsSkipped != 1 {
		t.Fatalf("expected 1 skipped row, got %d", result.RowsSkipped)
	}
}

func TestParseDispatchesOnExtension(t *testing.T) {
	if _, err := Parse("leads.txt", strings.NewReader("x")); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unsupported extension, got %v", err)
	}

	result, err := Parse("Leads.CSV", strings.NewReader("phone\n555-111-2222\n"))
	if err != nil {
		t.Fatalf("Parse csv failed: %v", err)
	}
	if len(result.Leads) != 1 {
		t.Fatalf("expected 1 lead, got %d", len(result.Leads))
	}
}
