// Package eval scores refinement-loop outcomes against ground truth and
// aggregates per-item latency into summary statistics.
package eval

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numberPattern finds the first numeric token: optional sign and currency
// symbol, comma grouping, decimal part, then an optional percent sign or
// scale word.
var numberPattern = regexp.MustCompile(`(?i)-?\$?[\d,]+\.?\d*\s*(%|million|billion|thousand)?`)

var scaleFactors = map[string]float64{
	"thousand": 1e3,
	"million":  1e6,
	"billion":  1e9,
}

// ExtractNumber extracts the first numeric value from a string, handling
// currency symbols, comma grouping, percent signs, and the scale words
// thousand/million/billion. The percent sign is stripped, never rescaled:
// "56.6%" extracts 56.6, not 0.566.
func ExtractNumber(s string) (float64, bool) {
	match := numberPattern.FindStringSubmatch(s)
	if match == nil {
		return 0, false
	}

	token := match[0]
	suffix := strings.ToLower(match[1])

	numeric := strings.NewReplacer("$", "", ",", "", "%", "").Replace(token)
	if suffix != "" && suffix != "%" {
		numeric = strings.TrimSpace(strings.TrimSuffix(strings.ToLower(numeric), suffix))
	}
	numeric = strings.TrimSpace(numeric)

	value, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		return 0, false
	}

	if factor, ok := scaleFactors[suffix]; ok {
		value *= factor
	}
	return value, true
}

// normalizeAnswer collapses whitespace and lowercases for exact matching.
func normalizeAnswer(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// ExactMatch reports whether prediction equals ground truth after whitespace
// and case normalization. Any other deviation is a non-match.
func ExactMatch(groundTruth, prediction string) bool {
	return normalizeAnswer(groundTruth) == normalizeAnswer(prediction)
}

// NumericalMatchTolerance is the absolute tolerance for numerical matching,
// allowing for minor rounding differences between prediction and truth.
const NumericalMatchTolerance = 0.5

// NumericalMatch reports whether the first numeric values extracted from both
// strings agree within the absolute tolerance. When no numeric token can be
// extracted from either side, the result is false.
func NumericalMatch(groundTruth, prediction string) bool {
	truthValue, ok := ExtractNumber(groundTruth)
	if !ok {
		return false
	}
	predictedValue, ok := ExtractNumber(prediction)
	if !ok {
		return false
	}
	return math.Abs(truthValue-predictedValue) <= NumericalMatchTolerance
}
