package document

import "strings"

// Category labels the kind of artifact being drafted and decides which
// factual details have to be collected before generation can start.
type Category string

const (
	Purchase    Category = "Purchase Agreement"
	Rental      Category = "Rental Agreement"
	Service     Category = "Service Contract"
	Employment  Category = "Employment Contract"
	NDA         Category = "Non-Disclosure Agreement (NDA)"
	Partnership Category = "Partnership Agreement"
	Loan        Category = "Loan Agreement"
	General     Category = "General Contract"
)

type registryEntry struct {
	category Category
	keywords []string
	fields   []string
}

// registry is scanned in declaration order when classifying free text.
// General stays last with no keywords; it is the catch-all.
var registry = []registryEntry{
	{
		category: Purchase,
		keywords: []string{"buy", "purchase", "sale", "sell", "acquire", "transaction"},
		fields:   []string{"issuer_name", "receiver_name", "date", "location", "item_description", "price", "payment_terms"},
	},
	{
		category: Rental,
		keywords: []string{"rent", "lease", "rental", "tenant", "landlord", "property"},
		fields:   []string{"landlord_name", "tenant_name", "property_address", "rental_period", "monthly_rent", "security_deposit"},
	},
	{
		category: Service,
		keywords: []string{"service", "provide", "contract work", "consulting", "freelance"},
		fields:   []string{"service_provider", "client_name", "service_description", "start_date", "end_date", "payment_terms"},
	},
	{
		category: Employment,
		keywords: []string{"employment", "job", "hire", "employee", "work", "position"},
		fields:   []string{"employer_name", "employee_name", "position", "start_date", "salary", "benefits"},
	},
	{
		category: NDA,
		keywords: []string{"confidentiality", "nda", "non-disclosure", "secret", "proprietary"},
		fields:   []string{"disclosing_party", "receiving_party", "confidential_information", "effective_date", "duration"},
	},
	{
		category: Partnership,
		keywords: []string{"partnership", "business partnership", "joint venture", "collaborate"},
		fields:   []string{"partner_1_name", "partner_2_name", "business_name", "capital_contribution", "profit_sharing"},
	},
	{
		category: Loan,
		keywords: []string{"loan", "borrow", "lend", "credit", "financing"},
		fields:   []string{"lender_name", "borrower_name", "loan_amount", "interest_rate", "repayment_terms"},
	},
	{
		category: General,
		fields:   []string{"party_a", "party_b", "subject", "date", "terms"},
	},
}

// Classify maps free text to the best-matching category using the static
// keyword table. Categories are scanned in priority order and the catch-all
// is skipped; it is returned only when nothing else matches. Keywords match
// on whole words, so "sales" does not hit "sale" and "please" does not hit
// "lease".
func Classify(text string) Category {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return General
	}

	for _, entry := range registry {
		if entry.category == General {
			continue
		}
		for _, keyword := range entry.keywords {
			if containsKeyword(normalized, keyword) {
				return entry.category
			}
		}
	}

	return General
}

func containsKeyword(text, keyword string) bool {
	for start := 0; ; start++ {
		idx := strings.Index(text[start:], keyword)
		if idx < 0 {
			return false
		}
		start += idx
		end := start + len(keyword)
		if (start == 0 || !isWordByte(text[start-1])) && (end == len(text) || !isWordByte(text[end])) {
			return true
		}
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// FieldsFor returns the ordered template of required field names for a
// category, or the catch-all template for an unknown category.
func FieldsFor(category Category) []string {
	for _, entry := range registry {
		if entry.category == category {
			return append([]string(nil), entry.fields...)
		}
	}
	return FieldsFor(General)
}

// Keywords returns the detection keywords for a category.
func Keywords(category Category) []string {
	for _, entry := range registry {
		if entry.category == category {
			return append([]string(nil), entry.keywords...)
		}
	}
	return nil
}

// Categories lists every known category in priority order.
func Categories() []Category {
	out := make([]Category, 0, len(registry))
	for _, entry := range registry {
		out = append(out, entry.category)
	}
	return out
}

// FieldLabel renders a snake_case field name as a human-readable label,
// e.g. "security_deposit" becomes "Security Deposit".
func FieldLabel(name string) string {
	words := strings.Split(name, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
