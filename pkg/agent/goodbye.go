package agent

import "github.com/sipeed/alfred/pkg/utils"

const goodbyeMessage = "Very well, sir. I shall be here if you need me."

var goodbyeWords = []string{"exit", "quit", "salir", "adios", "bye", "chao", "chau", "hasta luego"}

// IsGoodbye reports whether text contains a farewell as a whole word. JSON
// payloads are never farewells.
func IsGoodbye(text string) bool {
	if isPayload(text) {
		return false
	}
	for _, w := range goodbyeWords {
		if utils.ContainsWord(text, w) {
			return true
		}
	}
	return false
}

func isPayload(text string) bool {
	return len(text) > 0 && (text[0] == '{' || text[0] == '[')
}
