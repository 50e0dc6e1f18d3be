package phone

import "testing"

func TestNormalizeDialable(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"(416) 123-4567", "+4161234567"},
		{"5551234567", "+5551234567"},
		{"+1 (555) 123-4567", "+15551234567"},
		{"  +31 6 1234 5678 ", "+31612345678"},
		{"ext. 555-0199", "+5550199"},
		{"", ""},
		{"   ", ""},
		{"---", ""},
	}

	for _, tc := range cases {
		if got := NormalizeDialable(tc.raw); got != tc.want {
			t.Fatalf("NormalizeDialable(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestNormalizeDialableIdempotent(t *testing.T) {
	inputs := []string{
		"(416) 123-4567",
		"+15551234567",
		"phone: 555 111 2222",
		"",
		"+",
	}

	for _, raw := range inputs {
		once := NormalizeDialable(raw)
		twice := NormalizeDialable(once)
		if once != twice {
			t.Fatalf("NormalizeDialable not idempotent for %q: first %q, second %q", raw, once, twice)
		}
	}
}

func TestNormalizeDialableNoCountryInference(t *testing.T) {
	// The same subscriber typed with and without a country code must stay
	// distinct; normalization is syntactic only.
	a := NormalizeDialable("555-123-4567")
	b := NormalizeDialable("+1 555-123-4567")
	if a == b {
		t.Fatalf("expected distinct keys, both normalized to %q", a)
	}
}

func TestIsLikelyValid(t *testing.T) {
	if !IsLikelyValid("+14155552671") {
		t.Fatal("expected +14155552671 to be valid")
	}
	if IsLikelyValid("") {
		t.Fatal("expected empty input to be invalid")
	}
	if IsLikelyValid("12") {
		t.Fatal("expected short garbage to be invalid")
	}
}
