package timeline

import "fmt"

// Fraction is an exact non-negative rational kept in lowest terms.
type Fraction struct {
	Num int `json:"num"`
	Den int `json:"den"`
}

// NewFraction returns num/den reduced. den must be positive.
func NewFraction(num, den int) Fraction {
	if den <= 0 {
		panic(fmt.Sprintf("timeline: fraction denominator %d", den))
	}
	g := gcd(abs(num), den)
	if g == 0 {
		return Fraction{Num: 0, Den: 1}
	}
	return Fraction{Num: num / g, Den: den / g}
}

// Add returns f+o in lowest terms.
func (f Fraction) Add(o Fraction) Fraction {
	return NewFraction(f.Num*o.Den+o.Num*f.Den, f.Den*o.Den)
}

// Equal compares two fractions exactly.
func (f Fraction) Equal(o Fraction) bool {
	return f.Num*o.Den == o.Num*f.Den
}

// Float64 converts the fraction for rendering.
func (f Fraction) Float64() float64 {
	return float64(f.Num) / float64(f.Den)
}

func (f Fraction) String() string {
	return fmt.Sprintf("%d/%d", f.Num, f.Den)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
