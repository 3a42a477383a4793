package promptstyle

import "strings"

const marker = "PERSPECTIVE_PROMPT_STYLE_V1"

// ApplySystem prepends a short guidance block to a system prompt. Prompts that already
// carry the block are returned unchanged.
func ApplySystem(system string, mode string) string {
	base := strings.TrimSpace(system)
	if base == "" {
		return base
	}
	if strings.Contains(base, marker) {
		return base
	}
	mode = strings.ToLower(strings.TrimSpace(mode))

	var b strings.Builder
	b.WriteString(marker)
	b.WriteString("\nYou support a personal wellness journaling app.")
	b.WriteString("\nBe warm and non-judgmental. Never diagnose and never give medical advice.")
	b.WriteString("\nGround every statement in the provided entries; do not invent events.")
	b.WriteString("\nIf the input is thin, stay brief and neutral rather than speculating.")
	if mode == "json" {
		b.WriteString("\nReturn a single JSON object that conforms to the schema and contains no extra keys.")
	} else {
		b.WriteString("\nBe concise.")
	}
	b.WriteString("\n---\n")
	b.WriteString(base)
	return strings.TrimSpace(b.String())
}
