package sniffer

import (
	"github.com/FACorreiaa/echo-ledger/internal/domain/import/normalizer"
	"github.com/shopspring/decimal"
)

const (
	// MaxSampleValues bounds how many non-empty values are inspected per column.
	MaxSampleValues = 50

	maxKeptSamples     = 5
	smallSampleSize    = 10
	thresholdLarge     = 0.6
	thresholdSmall     = 0.4
	minMonotonicPoints = 3
)

// Inference is the result of InferType.
type Inference struct {
	Type        ColumnType
	Samples     []string
	HasNegative bool
	HasPositive bool
	IsMonotonic bool
}

// InferType classifies a column from its values. Only the first
// MaxSampleValues non-empty values are used. Samples under ten values use a
// relaxed 0.4 threshold instead of 0.6.
func InferType(values []any) Inference {
	sample := make([]any, 0, MaxSampleValues)
	for _, v := range values {
		if isEmptyCell(v) {
			continue
		}
		sample = append(sample, v)
		if len(sample) == MaxSampleValues {
			break
		}
	}

	inf := Inference{Type: TypeUnknown}
	if len(sample) == 0 {
		return inf
	}

	for i := 0; i < len(sample) && i < maxKeptSamples; i++ {
		inf.Samples = append(inf.Samples, CellString(sample[i]))
	}

	threshold := thresholdLarge
	if len(sample) < smallSampleSize {
		threshold = thresholdSmall
	}
	n := float64(len(sample))

	dates := 0
	for _, v := range sample {
		if _, ok := normalizer.ParseDate(v); ok {
			dates++
		}
	}
	if float64(dates)/n >= threshold {
		inf.Type = TypeDate
		return inf
	}

	numbers := make([]decimal.Decimal, 0, len(sample))
	for _, v := range sample {
		if d, ok := normalizer.ParseAmount(v); ok {
			numbers = append(numbers, d)
		}
	}
	if float64(len(numbers))/n < threshold {
		inf.Type = TypeText
		return inf
	}

	inf.Type = TypeNumber
	for _, d := range numbers {
		switch d.Sign() {
		case -1:
			inf.HasNegative = true
		case 1:
			inf.HasPositive = true
		}
	}
	inf.IsMonotonic = isMonotonic(numbers)
	return inf
}

// isMonotonic needs at least three points; two points are
// indistinguishable from noise.
func isMonotonic(values []decimal.Decimal) bool {
	if len(values) < minMonotonicPoints {
		return false
	}
	nonDecreasing, nonIncreasing := true, true
	for i := 1; i < len(values); i++ {
		switch values[i].Cmp(values[i-1]) {
		case 1:
			nonIncreasing = false
		case -1:
			nonDecreasing = false
		}
	}
	return nonDecreasing || nonIncreasing
}
