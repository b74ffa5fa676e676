package engine

import "github.com/shopspring/decimal"

type Bucket string

const (
	BucketAbove       Bucket = "above"
	BucketBelow       Bucket = "below"
	BucketCompetitive Bucket = "competitive"
	BucketUnknown     Bucket = "unknown"
)

// Band bounds the competitive bucket as multipliers of the benchmark price.
type Band struct {
	Lower decimal.Decimal
	Upper decimal.Decimal
}

// DefaultBand is the +-15% band the console has always used.
func DefaultBand() Band {
	return Band{
		Lower: decimal.NewFromFloat(0.85),
		Upper: decimal.NewFromFloat(1.15),
	}
}

// CompetitiveBucket classifies price against the benchmark. Prices on the
// band boundary are competitive; an unknown benchmark (zero) yields unknown.
func CompetitiveBucket(price, benchmark decimal.Decimal, band Band) Bucket {
	if !benchmark.IsPositive() {
		return BucketUnknown
	}
	if price.GreaterThan(benchmark.Mul(band.Upper)) {
		return BucketAbove
	}
	if price.LessThan(benchmark.Mul(band.Lower)) {
		return BucketBelow
	}
	return BucketCompetitive
}
