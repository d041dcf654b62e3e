package document

import (
	"fmt"
	"strings"
)

// FallbackPrompt builds the deterministic field solicitation used when the
// request collaborator is unavailable.
func FallbackPrompt(category Category, batch []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I need to gather some information for your %s. Please provide the following details:\n\n", category)
	for _, name := range batch {
		fmt.Fprintf(&b, "- %s\n", FieldLabel(name))
	}
	b.WriteString("\nPlease provide each piece of information clearly so I can create your document accurately.")
	return b.String()
}

// FallbackDocument renders the minimal templated artifact used as a last
// resort when the generation backend has exhausted its retries before
// producing any output.
func FallbackDocument(ctx Context) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", strings.ToUpper(string(ctx.Category)))
	fmt.Fprintf(&b, "This document is prepared for %s and %s.\n\n",
		ctx.Field("party_a", "Party A"), ctx.Field("party_b", "Party B"))

	b.WriteString("## Details\n\n")
	for _, fv := range ctx.Fields {
		fmt.Fprintf(&b, "%s: %s\n", FieldLabel(fv.Name), fv.Value)
	}

	b.WriteString("\nThis document constitutes a binding agreement between the parties, ")
	b.WriteString("effective as of the date it is executed below.\n\n")
	b.WriteString("## Signatures\n\n")
	b.WriteString("_______________________  _______________________\n")
	b.WriteString("Party A                   Party B\n\n")
	b.WriteString("Date: ______________\n")

	return b.String()
}
