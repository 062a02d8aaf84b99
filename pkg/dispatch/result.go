package dispatch

// MetaKey is the reserved field carrying invocation metadata.
const MetaKey = "_meta"

// Result is the envelope every dispatch returns: "ok", an optional "error",
// whatever fields the domain script emitted, and MetaKey.
type Result map[string]any

// Failure builds a failed result with msg as its error.
func Failure(msg string) Result {
	return Result{"ok": false, "error": msg}
}

func (r Result) OK() bool {
	ok, _ := r["ok"].(bool)
	return ok
}

// ErrorMessage returns the "error" field when it is a string.
func (r Result) ErrorMessage() string {
	msg, _ := r["error"].(string)
	return msg
}

// Meta returns the metadata object, creating it (and replacing a non-object
// value) when needed.
func (r Result) Meta() map[string]any {
	if m, ok := r[MetaKey].(map[string]any); ok {
		return m
	}
	m := map[string]any{}
	r[MetaKey] = m
	return m
}

// Summary aggregates a batch: OK only when every result is.
type Summary struct {
	OK      bool     `json:"ok"`
	Results []Result `json:"results"`
}
