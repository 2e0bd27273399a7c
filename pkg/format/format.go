package format

import (
	"fmt"
	"strconv"
	"strings"
)

// Money renders a currency amount with thousands separators and two
// decimal places, e.g. 1234567.5 -> "1,234,567.50".
func Money(amount float64) string {
	numStr := strconv.FormatFloat(amount, 'f', 2, 64)

	isNegative := strings.HasPrefix(numStr, "-")
	if isNegative {
		numStr = strings.TrimPrefix(numStr, "-")
	}

	parts := strings.SplitN(numStr, ".", 2)
	integerPart := parts[0]

	length := len(integerPart)

	start := length % 3
	if start == 0 {
		start = 3
	}

	var b strings.Builder

	if isNegative {
		b.WriteString("-")
	}

	b.WriteString(integerPart[:start])

	for i := start; i < length; i += 3 {
		b.WriteString(",")
		b.WriteString(integerPart[i : i+3])
	}

	b.WriteString(".")
	b.WriteString(parts[1])

	return b.String()
}

// Percent renders a fractional day change as a signed percentage,
// e.g. 0.015 -> "+1.50%".
func Percent(change float64) string {
	return fmt.Sprintf("%+.2f%%", change*100)
}
