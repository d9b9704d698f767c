package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is an amount in minor units (cents).
type Money int64

// Mul returns m*q. ok is false when the product does not fit in a Money.
func (m Money) Mul(q int) (_ Money, ok bool) {
	if m == 0 || q == 0 {
		return 0, true
	}
	r := m * Money(q)
	if r/Money(q) != m || (q == -1 && m == math.MinInt64) {
		return 0, false
	}
	return r, true
}

func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON renders the amount as a decimal number with two fractional digits.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string.
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(s))
	}
	v, err := ParseMoney(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func ParseMoney(s string) (Money, error) {
	if s == "" {
		return 0, Invalid("price is required")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, Invalid("invalid price %q", s)
	}
	cents := math.Round(f * 100)
	if math.Abs(cents) > math.MaxInt64/2 {
		return 0, Invalid("price out of range")
	}
	return Money(cents), nil
}
