// Package textutil provides text utilities for documentation synthesis:
// identifier splitting, word case helpers, and source sniffing helpers.
package textutil

import (
	"bytes"
	"strings"
	"unicode"
	"unicode/utf8"
)

// BinarySniffLength is the maximum number of bytes scanned for null-byte
// detection. Matches the heuristic used by Git and most editors.
const BinarySniffLength = 8000

// IsBinary returns true if data contains a null byte within the first
// BinarySniffLength bytes. Empty data is not binary.
func IsBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}

	sniff := data
	if len(sniff) > BinarySniffLength {
		sniff = sniff[:BinarySniffLength]
	}

	return bytes.IndexByte(sniff, 0) >= 0
}

// CountLines returns the number of newline-delimited lines in data.
// A non-empty buffer without a trailing newline counts the last partial line.
// Returns 0 for empty data.
func CountLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}

	lines := bytes.Count(data, []byte{'\n'})

	if data[len(data)-1] != '\n' {
		lines++
	}

	return lines
}

// FirstToUpper upper-cases the first rune of s.
func FirstToUpper(s string) string {
	return mapFirst(s, unicode.ToUpper)
}

// FirstToLower lower-cases the first rune of s.
func FirstToLower(s string) string {
	return mapFirst(s, unicode.ToLower)
}

func mapFirst(s string, mapping func(rune) rune) string {
	if s == "" {
		return s
	}

	first, size := utf8.DecodeRuneInString(s)

	return string(mapping(first)) + s[size:]
}

// JoinWords joins words with single spaces, skipping empty ones.
func JoinWords(words []string) string {
	var sb strings.Builder

	for _, word := range words {
		if word == "" {
			continue
		}

		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}

		sb.WriteString(word)
	}

	return sb.String()
}

// LowerWords lower-cases every word except acronyms (words of two or more
// runes that are entirely upper-case).
func LowerWords(words []string) []string {
	out := make([]string, len(words))

	for idx, word := range words {
		if isAcronym(word) {
			out[idx] = word

			continue
		}

		out[idx] = strings.ToLower(word)
	}

	return out
}

func isAcronym(word string) bool {
	if utf8.RuneCountInString(word) < 2 {
		return false
	}

	for _, r := range word {
		if !unicode.IsUpper(r) && !unicode.IsDigit(r) {
			return false
		}
	}

	return true
}
