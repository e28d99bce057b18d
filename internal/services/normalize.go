package services

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// clean trims s and folds it to Unicode NFC so visually identical usernames
// and bodies compare and store identically.
func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
