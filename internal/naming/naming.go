// Package naming derives the standardized display filename a job's file
// carries through every status directory:
//
//	FirstLast_Method_Color_shortid.ext
//
// Derivation is pure and deterministic so the name can be recomputed for
// auditing.
package naming

import (
	"path"
	"strings"
	"unicode"
)

// placeholder is used when the submitter name has no usable tokens.
const placeholder = "Unknown"

// Derive composes the display filename from submitter identity, print
// method, color, and job id, preserving the original extension
// lower-cased.
func Derive(submitterFullName, printMethod, color, jobID, originalFilename string) string {
	parts := strings.Fields(submitterFullName)

	var name string
	switch {
	case len(parts) >= 2:
		name = alnum(parts[0]) + alnum(parts[len(parts)-1])
	case len(parts) == 1:
		name = alnum(parts[0])
	}
	if name == "" {
		name = placeholder
	}

	shortID := strings.ReplaceAll(jobID, "-", "")
	if len(shortID) > 8 {
		shortID = shortID[:8]
	}

	ext := strings.ToLower(path.Ext(originalFilename))

	return name + "_" + alnum(printMethod) + "_" + alnum(color) + "_" + shortID + ext
}

// alnum strips every non-alphanumeric character.
func alnum(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
