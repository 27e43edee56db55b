// Package fixed parses and renders decimal values with exactly one
// fractional digit as integers scaled by ten ("tenths").
package fixed

import (
	"strconv"

	"github.com/example/brc/internal/fault"
)

// Scale is the fixed-point factor between a value and its tenths.
const Scale = 10

// maxDigits keeps the accumulated tenths within int64 on every platform.
const maxDigits = 18

// Parse converts b, which must match -?[0-9]+\.[0-9], into tenths.
// "-12.3" yields -123. No floating point is involved.
func Parse(b []byte) (int64, error) {
	n := len(b)
	if n < 3 || b[n-2] != '.' {
		return 0, fault.ErrMalformedValue
	}

	i := 0
	neg := false
	if b[0] == '-' {
		neg = true
		i++
	}
	if n-2-i < 1 || n-1-i > maxDigits {
		return 0, fault.ErrMalformedValue
	}

	var v int64
	for ; i < n; i++ {
		c := b[i]
		if i == n-2 {
			continue // '.'
		}
		if c < '0' || c > '9' {
			return 0, fault.ErrMalformedValue
		}
		v = v*10 + int64(c-'0')
	}

	if neg {
		v = -v
	}
	return v, nil
}

// Append appends the decimal rendering of tenths to dst.
func Append(dst []byte, tenths int64) []byte {
	if tenths < 0 {
		dst = append(dst, '-')
		tenths = -tenths
	}
	dst = strconv.AppendInt(dst, tenths/Scale, 10)
	dst = append(dst, '.')
	return append(dst, byte('0'+tenths%Scale))
}

// Format renders tenths as a decimal with one fractional digit.
func Format(tenths int64) string {
	return string(Append(make([]byte, 0, 8), tenths))
}

// Mean returns sum/count in tenths, rounded half away from zero.
// count must be positive.
func Mean(sum int64, count uint64) int64 {
	c := int64(count)
	q, r := sum/c, sum%c
	if r < 0 {
		r = -r
	}
	if 2*r >= c {
		if sum < 0 {
			q--
		} else {
			q++
		}
	}
	return q
}
