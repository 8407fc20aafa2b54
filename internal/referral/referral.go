// Package referral derives the public sharing code attached to every signup.
package referral

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf16"
)

// CodeLength is the fixed length of every referral code.
const CodeLength = 8

var codePattern = regexp.MustCompile(`^[A-Z0-9]{8}$`)

// Generate maps an email to an 8 character uppercase base-36 code.
//
// The fold is acc = unit + ((acc << 5) - acc) over UTF-16 code units, where the
// shift operates on the 32-bit truncation of acc but the subtraction uses the
// full value. This is exactly what the web form computes, so codes produced
// here match the ones it already stored. The result is not a secret: collisions
// are expected across a large list.
func Generate(email string) string {
	var acc int64
	for _, unit := range utf16.Encode([]rune(email)) {
		acc = int64(unit) + (int64(int32(acc)<<5) - acc)
	}
	if acc < 0 {
		acc = -acc
	}

	code := strings.ToUpper(strconv.FormatInt(acc, 36))
	if len(code) < CodeLength {
		code = strings.Repeat("0", CodeLength-len(code)) + code
	}
	return code[:CodeLength]
}

// Valid reports whether code has the shape Generate produces.
func Valid(code string) bool {
	return codePattern.MatchString(code)
}

// Normalize cleans a code taken from a ?ref= query parameter.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
