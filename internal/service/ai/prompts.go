package ai

import (
	"fmt"
	"strings"

	"github.com/docsmithhq/backend/internal/model/document"
	"github.com/docsmithhq/backend/internal/model/session"
)

const extractionSystemPrompt = `You are a legal practitioner. Given a user's request, decide the most
suitable document category and the minimal list of factual details that must be
collected from the user to prepare that document.

Rules:
- Include only factual identifiers and essential values: names, addresses,
  company names, monetary amounts, dates.
- Do NOT include fields such as obligations, terms, clauses or conditions;
  those are drafted automatically.
- Field names are lower snake_case.
- Prefer one of these categories when it fits: Purchase Agreement, Rental
  Agreement, Service Contract, Employment Contract, Non-Disclosure Agreement
  (NDA), Partnership Agreement, Loan Agreement, General Contract.

Respond with a single JSON object of the shape
{"category": "<string>", "fields": ["<string>", ...]}
and no additional text.`

const mappingSystemPrompt = `You are a document processing expert. Map the information the user just
provided onto the outstanding document fields. Map only fields you are
confident about and score each mapping.

Respond with a single JSON array of objects of the shape
{"field_name": "<string>", "field_value": "<string>", "confidence": <0..1>}
and no additional text. Return [] when nothing maps.`

const requestSystemPrompt = `You are a friendly, professional legal assistant gathering information for a
document. Compose the next short message to the user.

Rules:
- If recent acknowledgments are listed, briefly thank the user for them first.
- Ask plainly for the fields in this batch, and only those.
- Be brief, warm and clear.
- When greeting for the first time, open with one sentence acknowledging the
  user's goal, list every missing field as a numbered list, then invite the
  user to answer at their own pace or all at once.
- When two or fewer fields remain overall, signal that collection is nearly
  done ("finally", "to wrap up" or similar).

Respond with a single JSON object of the shape {"question": "<string>"} and no
additional text.`

const generationSystemPrompt = `You are a professional legal document writer. Draft a complete, professionally
formatted document in Markdown using the supplied category, goal and field
values. Include a proper title, all customary clauses and sections for the
category, clear terms, signature lines, and date and location information.
Finish every section you open; end with execution provisions.`

func buildExtractionInput(text string) string {
	return fmt.Sprintf("Here is the user's request:\n%s\n\nRespond with the JSON object only.", text)
}

func buildMappingInput(text string, missing []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User input: %q\n\nOutstanding fields:\n", text)
	for _, name := range missing {
		fmt.Fprintf(&b, "- %s\n", name)
	}
	b.WriteString("\nRespond with the JSON array only.")
	return b.String()
}

func buildRequestInput(sol *session.Solicitation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Document category: %s\n", sol.Category)
	fmt.Fprintf(&b, "User goal: %s\n", sol.Goal)
	fmt.Fprintf(&b, "First prompt of the conversation: %t\n\n", sol.Greet)

	b.WriteString("All missing fields:\n")
	for _, name := range sol.Missing {
		fmt.Fprintf(&b, "- %s\n", document.FieldLabel(name))
	}

	b.WriteString("\nFields to request in this message:\n")
	for _, name := range sol.Batch {
		fmt.Fprintf(&b, "- %s\n", document.FieldLabel(name))
	}

	if len(sol.Acknowledgments) > 0 {
		b.WriteString("\nRecent acknowledgments:\n")
		for _, ack := range sol.Acknowledgments {
			fmt.Fprintf(&b, "- %s\n", ack)
		}
	}

	return b.String()
}

func buildGenerationInput(docCtx document.Context) string {
	var b strings.Builder

	if docCtx.Tail != "" {
		b.WriteString("The following document was partially generated but appears incomplete.\n")
		b.WriteString("Here is the tail of the text produced so far:\n\n")
		b.WriteString(docCtx.Tail)
		b.WriteString("\n\nContinue exactly where the document left off, maintaining the same style\n")
		b.WriteString("and format. Complete any unfinished sentences or sections, add any missing\n")
		b.WriteString("standard clauses, and close with proper signature blocks and execution\n")
		b.WriteString("provisions. Do not repeat text already produced.\n\n")
	}

	fmt.Fprintf(&b, "Document category: %s\n", docCtx.Category)
	fmt.Fprintf(&b, "User goal: %s\n\nFields:\n", docCtx.Goal)
	for _, fv := range docCtx.Fields {
		fmt.Fprintf(&b, "- %s: %s\n", fv.Name, fv.Value)
	}

	return b.String()
}
