package document_test

import (
	"testing"

	"github.com/docsmithhq/backend/internal/model/document"
)

func TestClassifyMatchesKeywords(t *testing.T) {
	cases := []struct {
		text string
		want document.Category
	}{
		{"I need a rental agreement for my apartment", document.Rental},
		{"help me draft an NDA for a new vendor", document.NDA},
		{"I want to hire an employee for a sales position", document.Employment},
		{"we are setting up a joint venture", document.Partnership},
		{"I need to borrow money from a friend", document.Loan},
		{"draft me something for a consulting engagement", document.Service},
		{"I want to sell my car", document.Purchase},
	}

	for _, tc := range cases {
		if got := document.Classify(tc.text); got != tc.want {
			t.Fatalf("Classify(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestClassifyFallsBackToGeneral(t *testing.T) {
	if got := document.Classify("please write me a document"); got != document.General {
		t.Fatalf("expected General, got %q", got)
	}
	if got := document.Classify(""); got != document.General {
		t.Fatalf("expected General for empty text, got %q", got)
	}
}

func TestClassifyMatchesWholeWordsOnly(t *testing.T) {
	// "lease" must not fire inside "please" or "releases", and "sale" must
	// not fire inside "sales".
	if got := document.Classify("releases are scheduled monthly"); got != document.General {
		t.Fatalf("expected General, got %q", got)
	}
	if got := document.Classify("we will lease the unit"); got != document.Rental {
		t.Fatalf("expected Rental, got %q", got)
	}
	if got := document.Classify("quarterly sales figures"); got != document.General {
		t.Fatalf("expected General, got %q", got)
	}
}

func TestClassifyPriorityOrder(t *testing.T) {
	// "purchase" outranks "property" because Purchase is declared first.
	if got := document.Classify("purchase of a rental property"); got != document.Purchase {
		t.Fatalf("expected Purchase, got %q", got)
	}
}

func TestFieldsForRental(t *testing.T) {
	want := []string{"landlord_name", "tenant_name", "property_address", "rental_period", "monthly_rent", "security_deposit"}
	got := document.FieldsFor(document.Rental)

	if len(got) != len(want) {
		t.Fatalf("expected %d fields, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("field %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFieldsForUnknownCategory(t *testing.T) {
	got := document.FieldsFor(document.Category("Made Up"))
	want := document.FieldsFor(document.General)

	if len(got) != len(want) {
		t.Fatalf("expected catch-all template, got %v", got)
	}
}

func TestFieldsForReturnsCopy(t *testing.T) {
	first := document.FieldsFor(document.Loan)
	first[0] = "mutated"

	if document.FieldsFor(document.Loan)[0] != "lender_name" {
		t.Fatal("FieldsFor must not expose the registry's backing array")
	}
}

func TestFieldLabel(t *testing.T) {
	cases := map[string]string{
		"security_deposit": "Security Deposit",
		"party_a":          "Party A",
		"price":            "Price",
	}
	for in, want := range cases {
		if got := document.FieldLabel(in); got != want {
			t.Fatalf("FieldLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCategoriesListsGeneralLast(t *testing.T) {
	categories := document.Categories()
	if len(categories) != 8 {
		t.Fatalf("expected 8 categories, got %d", len(categories))
	}
	if categories[len(categories)-1] != document.General {
		t.Fatalf("expected General last, got %q", categories[len(categories)-1])
	}
}
