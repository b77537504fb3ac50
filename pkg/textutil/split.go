package textutil

import (
	"strings"
	"unicode"
)

// splitState is the character class of the word being accumulated.
type splitState int

const (
	stateEmpty splitState = iota
	stateLower
	stateUpper
	stateDigit
)

// Split breaks an identifier into words at camel-case, digit, and underscore
// boundaries. Runs of upper-case letters stay together ("ID"), except that
// the last upper-case letter before a lower-case one starts the next word.
// Casing is preserved; an empty identifier yields an empty slice.
//
//	Split("getIDFromProdukt") // [get ID From Produkt]
//	Split("update4Invoice")   // [update 4 Invoice]
func Split(identifier string) []string {
	runes := []rune(strings.ReplaceAll(identifier, "_", " "))
	words := make([]string, 0, len(runes)/3+1)

	var word []rune

	flush := func() {
		if len(word) > 0 {
			words = append(words, string(word))
			word = word[:0]
		}
	}

	state := initialState(runes)

	for idx, r := range runes {
		if unicode.IsSpace(r) {
			flush()

			continue
		}

		switch state {
		case stateEmpty:
			// Unreachable for non-empty input.

		case stateLower:
			switch {
			case unicode.IsDigit(r):
				flush()

				state = stateDigit
			case unicode.IsUpper(r):
				flush()

				state = stateUpper
			}

			word = append(word, r)

		case stateUpper:
			if unicode.IsUpper(r) {
				if !upperRunContinues(runes, idx) {
					flush()

					state = stateLower
				}

				word = append(word, r)

				continue
			}

			state = stateLower

			if unicode.IsDigit(r) {
				flush()

				state = stateDigit
			}

			word = append(word, r)

		case stateDigit:
			if !unicode.IsDigit(r) {
				flush()

				state = stateLower
				if unicode.IsUpper(r) {
					state = stateUpper
				}
			}

			word = append(word, r)
		}
	}

	flush()

	return words
}

func initialState(runes []rune) splitState {
	if len(runes) == 0 {
		return stateEmpty
	}

	switch first := runes[0]; {
	case unicode.IsDigit(first):
		return stateDigit
	case unicode.IsUpper(first):
		return stateUpper
	default:
		return stateLower
	}
}

// upperRunContinues reports whether the upper-case rune at idx belongs to the
// current acronym run: it is the last rune, or the next rune is not a
// lower-case letter. A space left by an underscore ends the run like the end
// of input does, so "MAX_VALUE" keeps "MAX" whole.
func upperRunContinues(runes []rune, idx int) bool {
	if idx == len(runes)-1 {
		return true
	}

	next := runes[idx+1]

	return !unicode.IsLower(next)
}
