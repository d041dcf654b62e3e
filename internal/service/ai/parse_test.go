package ai

import "testing"

func TestDecodeObjectStripsProse(t *testing.T) {
	content := "Sure! Here is the result:\n```json\n{\"category\": \"Rental Agreement\", \"fields\": [\"landlord_name\"]}\n```"

	var ext Extraction
	if err := decodeObject(content, &ext); err != nil {
		t.Fatalf("decodeObject err: %v", err)
	}
	if ext.Category != "Rental Agreement" {
		t.Fatalf("unexpected category: %q", ext.Category)
	}
	if len(ext.Fields) != 1 || ext.Fields[0] != "landlord_name" {
		t.Fatalf("unexpected fields: %v", ext.Fields)
	}
}

func TestDecodeArray(t *testing.T) {
	content := `The mappings are: [{"field_name": "price", "field_value": "$100", "confidence": 0.92}]`

	var mappings []FieldMapping
	if err := decodeArray(content, &mappings); err != nil {
		t.Fatalf("decodeArray err: %v", err)
	}
	if len(mappings) != 1 {
		t.Fatalf("expected 1 mapping, got %d", len(mappings))
	}
	m := mappings[0]
	if m.Field != "price" || m.Value != "$100" || m.Confidence != 0.92 {
		t.Fatalf("unexpected mapping: %+v", m)
	}
}

func TestDecodeObjectNoWindow(t *testing.T) {
	var ext Extraction
	if err := decodeObject("no json here", &ext); err == nil {
		t.Fatal("expected error for prose without a JSON window")
	}
}

func TestDecodeObjectUsesOutermostWindow(t *testing.T) {
	content := `{"question": "What is the {monthly rent}?"}`

	var out struct {
		Question string `json:"question"`
	}
	if err := decodeObject(content, &out); err != nil {
		t.Fatalf("decodeObject err: %v", err)
	}
	if out.Question != "What is the {monthly rent}?" {
		t.Fatalf("unexpected question: %q", out.Question)
	}
}
