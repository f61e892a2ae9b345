package pipeline

import (
	"fmt"
	"strings"
)

const basePrompt = "You are a parser for bank account statements.\n\n" +
	"Task:\n" +
	"- Extract EVERY transaction row visible in the attached pages.\n" +
	"- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n" +
	"- Output one JSON object with the fields \"bankName\" and \"transactions\".\n\n" +
	"\"bankName\": string or null, the issuing bank if it is visible on these pages.\n" +
	"\"transactions\": array of objects, each with:\n" +
	"- \"date\": string as printed on the statement\n" +
	"- \"description\": string, the narration or particulars\n" +
	"- \"reference\": string or null, cheque or reference number\n" +
	"- \"debit\": number or null, money OUT of the account\n" +
	"- \"credit\": number or null, money IN to the account\n" +
	"- \"balance\": number or null, the running balance after the row\n" +
	"- \"currency\": string or null, ISO 4217 code\n\n"

const rulesPrompt = "Rules:\n" +
	"- Copy amounts without currency symbols or thousands separators.\n" +
	"- Never put the same row in both debit and credit.\n" +
	"- Skip opening/closing balance lines and page totals.\n" +
	"- If a row continues onto the next line, merge it into a single description.\n" +
	"- If no transactions are visible, return an empty \"transactions\" array.\n\n" +
	"Return ONLY valid raw JSON. Do NOT wrap the response in code fences.\n"

// buildPrompt adds the positional hint so the model knows it sees part of a
// larger statement.
func buildPrompt(req ExtractRequest) string {
	var b strings.Builder
	b.WriteString(basePrompt)
	if req.TotalChunks > 1 {
		fmt.Fprintf(&b, "These are pages %s of the statement %q (part %d of %d). "+
			"Rows may start mid-table; do not invent headers or totals.\n\n",
			req.Chunk.Label(), req.DocumentName, req.Chunk.Index, req.TotalChunks)
	}
	b.WriteString(rulesPrompt)
	if req.Payload.IsText() {
		b.WriteString("\nStatement text:\n")
		b.WriteString(req.Payload.Text)
	}
	return b.String()
}
