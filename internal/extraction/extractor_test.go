package extraction

import "testing"

func TestParseLeadsPlainJSON(t *testing.T) {
	leads, err := parseLeads(`[{"name":"Jane Doe","email":"jane@example.com","phone_number":"555-123-4567","address":"12 Elm St"}]`)
	if err != nil {
		t.Fatalf("parseLeads returned error: %v", err)
	}
	if len(leads) != 1 {
		t.Fatalf("expected 1 lead, got %d", len(leads))
	}
	if leads[0].Name != "Jane Doe" || leads[0].PhoneNumber != "555-123-4567" || leads[0].Address != "12 Elm St" {
		t.Fatalf("unexpected lead: %+v", leads[0])
	}
	if leads[0].Email != "jane@example.com" {
		t.Fatalf("email must survive parsing, got %q", leads[0].Email)
	}
}

func TestParseLeadsFencedJSON(t *testing.T) {
	text := "```json\n[{\"name\":\"Bob\",\"phone_number\":\"+15550001111\",\"address\":\"\"}]\n```"
	leads, err := parseLeads(text)
	if err != nil {
		t.Fatalf("parseLeads returned error: %v", err)
	}
	if len(leads) != 1 || leads[0].Name != "Bob" {
		t.Fatalf("unexpected leads: %+v", leads)
	}
}

func TestParseLeadsEmptyArray(t *testing.T) {
	leads, err := parseLeads("[]")
	if err != nil {
		t.Fatalf("parseLeads returned error: %v", err)
	}
	if len(leads) != 0 {
		t.Fatalf("expected no leads, got %d", len(leads))
	}
}

func TestParseLeadsProseFails(t *testing.T) {
	if _, err := parseLeads("I could not find any contacts in this image."); err == nil {
		t.Fatal("expected parse error for prose response")
	}
}
