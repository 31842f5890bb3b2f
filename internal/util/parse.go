package util

import (
	"regexp"
	"strconv"
	"strings"
)

func SafeAtoi(s string) int {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return i
}

var nonNumericRegex = regexp.MustCompile(`[^\d]`)

func CleanNumericString(s string) string {
	return nonNumericRegex.ReplaceAllString(s, "")
}

var extractSignedNumberRegex = regexp.MustCompile(`-?\d+`)

func ParseSignedNumericString(s string) string {
	return extractSignedNumberRegex.FindString(s)
}

var priceRegex = regexp.MustCompile(`\d[\d\s.,]*`)

var thinSpaces = strings.NewReplacer("\u00a0", " ", "\u202f", " ")

// ParsePrice turns a displayed price such as "1 299,99€" or "39.99 €" into
// plain decimal text ("1299.99", "39.99"). Text without digits, such as
// "GRATUIT", yields "".
func ParsePrice(s string) string {
	raw := priceRegex.FindString(thinSpaces.Replace(s))
	raw = strings.Join(strings.Fields(raw), "")
	raw = strings.TrimRight(raw, ".,")
	if raw == "" {
		return ""
	}
	if strings.Contains(raw, ",") {
		// French notation: "." groups thousands and "," marks decimals.
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.ReplaceAll(raw, ",", ".")
	}
	if _, err := strconv.ParseFloat(raw, 64); err != nil {
		return ""
	}
	return raw
}
