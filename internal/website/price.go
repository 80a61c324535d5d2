package website

import (
	"regexp"
	"strconv"
	"strings"
)

// MaxPriceRanges caps the contact page price list.
const MaxPriceRanges = 5

// ParseError rejects malformed operator input before anything is sent.
type ParseError struct {
	Input   string
	Message string
}

func (e *ParseError) Error() string { return e.Message }

var (
	priceNoise   = regexp.MustCompile(`[\s,₹]`)
	pricePattern = regexp.MustCompile(`^(\d+)-(\d+)$`)
)

// FormatPriceRange validates "29000 - 38000" style input and returns it as
// "29,000-38,000".
func FormatPriceRange(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", &ParseError{Input: input, Message: "Please enter a price range"}
	}
	m := pricePattern.FindStringSubmatch(priceNoise.ReplaceAllString(trimmed, ""))
	if m == nil {
		return "", &ParseError{Input: input, Message: "Format should be: 29000 - 38000"}
	}
	low, errLow := strconv.ParseInt(m[1], 10, 64)
	high, errHigh := strconv.ParseInt(m[2], 10, 64)
	if errLow != nil || errHigh != nil {
		return "", &ParseError{Input: input, Message: "Format should be: 29000 - 38000"}
	}
	if low >= high {
		return "", &ParseError{Input: input, Message: "First price must be lower than second price"}
	}
	return groupThousands(low) + "-" + groupThousands(high), nil
}

// UnformatPriceRange strips the thousands separators for editing.
func UnformatPriceRange(formatted string) string {
	return strings.ReplaceAll(formatted, ",", "")
}

func groupThousands(n int64) string {
	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
