package nl

import (
	"encoding/json"
	"fmt"
	"strings"
)

const resolveInstructions = `Convert the user instruction into order JSON following this schema.
STRICT output:
- ONE order:      {"domain": "...", "command": "...", "args": {...}}
- SEVERAL orders: {"orders": [ {"domain": "...", "command": "...", "args": {...}}, ... ]}
Do NOT add any text outside the JSON. Do NOT invent domains, commands or parameters; use only those in the catalog.
If a parameter does not apply, leave it out of "args".`

const aliasInstructions = `Design an alias that maps the user instruction onto an existing command.
STRICT output (JSON only): {"pattern": "...", "args_map": {...}}
Rules:
- Use '*' as a wildcard that matches any span. At most 3.
- Use $1, $2, ... as args_map values to extract the wildcard captures.
- Use ONLY parameter names that exist in the catalog.
- Do NOT invent domains or commands; only their pattern.`

const narrateSystem = `You are a British butler who explains command results with elegant, dry irony, directly and kindly.
Never invent effects that are not in the data. Be concise.`

const narrateInstructions = `Task:
1) Say whether it went well or badly.
2) Explain the key reason in one sentence (use stderr/stdout/_meta when relevant).
3) Give a brief suggestion (next step or fix). Do not repeat the JSON; speak naturally.
Use a single paragraph of at most two sentences.`

func resolvePrompt(catalogJSON, chunk string) string {
	return fmt.Sprintf("%s\n\nCatalog:\n%s\n\nInstruction:\n%s\n", resolveInstructions, catalogJSON, chunk)
}

func aliasPrompt(catalogJSON, chunk string) string {
	return fmt.Sprintf("%s\n\nCatalog:\n%s\n\nUser instruction:\n%s\n", aliasInstructions, catalogJSON, chunk)
}

func narratePrompt(payload any, result map[string]any) string {
	var sb strings.Builder
	sb.WriteString("Action data (JSON):\n- payload:\n")
	sb.WriteString(safeJSON(payload))
	sb.WriteString("\n\n- result:\n")
	sb.WriteString(safeJSON(result))
	sb.WriteString("\n\n")
	sb.WriteString(narrateInstructions)
	return sb.String()
}

func safeJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
