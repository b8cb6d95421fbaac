package coercer

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"startupstats/domain/dataset"
)

// TypeCoercer handles deterministic cell parsing and column type inference
type TypeCoercer struct {
	config  CoercionConfig
	missing map[string]bool
}

// CoercionConfig defines the coercion thresholds and rules
type CoercionConfig struct {
	NumericThreshold float64  `json:"numeric_threshold"` // share of present values that must parse as numbers
	MissingTokens    []string `json:"missing_tokens"`    // case-insensitive tokens read as missing
}

// DefaultCoercionConfig returns the loader defaults: a column is numeric
// only if every present cell parses.
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		NumericThreshold: 1.0,
		MissingTokens:    []string{"", "na", "n/a", "nan", "null", "none"},
	}
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	missing := make(map[string]bool, len(config.MissingTokens))
	for _, tok := range config.MissingTokens {
		missing[strings.ToLower(strings.TrimSpace(tok))] = true
	}
	return &TypeCoercer{config: config, missing: missing}
}

// IsMissing reports whether a raw cell denotes a missing value
func (c *TypeCoercer) IsMissing(raw string) bool {
	return c.missing[strings.ToLower(strings.TrimSpace(raw))]
}

var thousandsGrouped = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// ParseNumeric parses a cell as a number. Currency symbols, percent signs,
// parenthesised negatives and comma thousands separators are accepted.
func (c *TypeCoercer) ParseNumeric(raw string) (float64, bool) {
	cleanVal := strings.TrimSpace(raw)
	if cleanVal == "" {
		return 0, false
	}

	// (123) -> -123
	isNegative := false
	if strings.HasPrefix(cleanVal, "(") && strings.HasSuffix(cleanVal, ")") {
		cleanVal = strings.TrimSuffix(strings.TrimPrefix(cleanVal, "("), ")")
		isNegative = true
	}

	for _, symbol := range []string{"$", "€", "£", "¥", "USD", "EUR", "GBP", "JPY", "%"} {
		cleanVal = strings.ReplaceAll(cleanVal, symbol, "")
	}
	cleanVal = strings.TrimSpace(cleanVal)

	if strings.Contains(cleanVal, ",") {
		if !thousandsGrouped.MatchString(cleanVal) {
			return 0, false
		}
		cleanVal = strings.ReplaceAll(cleanVal, ",", "")
	}

	if isNegative {
		cleanVal = "-" + cleanVal
	}

	val, err := strconv.ParseFloat(cleanVal, 64)
	if err != nil || math.IsInf(val, 0) || math.IsNaN(val) {
		return 0, false
	}
	return val, true
}

// TypeAnalysis contains the results of type distribution analysis
type TypeAnalysis struct {
	TotalCount   int     `json:"total_count"`
	ValidCount   int     `json:"valid_count"`
	NumericCount int     `json:"numeric_count"`
	NumericRatio float64 `json:"numeric_ratio"`
}

// AnalyzeTypeDistribution counts present and numeric cells
func (c *TypeCoercer) AnalyzeTypeDistribution(values []string) TypeAnalysis {
	analysis := TypeAnalysis{TotalCount: len(values)}
	for _, v := range values {
		if c.IsMissing(v) {
			continue
		}
		analysis.ValidCount++
		if _, ok := c.ParseNumeric(v); ok {
			analysis.NumericCount++
		}
	}
	if analysis.ValidCount > 0 {
		analysis.NumericRatio = float64(analysis.NumericCount) / float64(analysis.ValidCount)
	}
	return analysis
}

// InferKind chooses numeric or categorical for a column. A column with no
// present values is numeric.
func (c *TypeCoercer) InferKind(values []string) dataset.Kind {
	analysis := c.AnalyzeTypeDistribution(values)
	if analysis.ValidCount == 0 || analysis.NumericRatio >= c.config.NumericThreshold {
		return dataset.KindNumeric
	}
	return dataset.KindCategorical
}

// BuildColumn converts raw cells into a typed column. Under a numeric
// kind, cells that do not parse become missing.
func (c *TypeCoercer) BuildColumn(name string, values []string) *dataset.Column {
	if c.InferKind(values) == dataset.KindNumeric {
		floats := make([]float64, len(values))
		for i, v := range values {
			if f, ok := c.ParseNumeric(v); ok && !c.IsMissing(v) {
				floats[i] = f
			} else {
				floats[i] = math.NaN()
			}
		}
		return dataset.NewNumericColumn(name, floats)
	}

	strs := make([]string, len(values))
	missing := make([]bool, len(values))
	for i, v := range values {
		if c.IsMissing(v) {
			missing[i] = true
			continue
		}
		strs[i] = strings.TrimSpace(v)
	}
	return dataset.NewCategoricalColumn(name, strs, missing)
}
