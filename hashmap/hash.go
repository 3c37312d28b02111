package hashmap

import (
	"math/big"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Hasher computes the primary hash of a key. The table reduces it modulo its capacity.
type Hasher interface {
	Hash(key string) uint64
}

// HasherFunc adapts a function to the Hasher interface.
type HasherFunc func(key string) uint64

func (f HasherFunc) Hash(key string) uint64 {
	return f(key)
}

// MidSquare is the default primary hash. The key's code points are folded into the
// position weighted sum Σ code(key[i])*(i+1), the sum is squared and the middle digits of the
// square's decimal form are kept: 4 digits for squares of 6 digits or more, 2 digits for
// squares of 4 or 5 digits, the whole square otherwise.
var MidSquare Hasher = HasherFunc(midSquare)

// XXHash hashes the key bytes with xxhash64.
var XXHash Hasher = HasherFunc(xxhash.Sum64String)

// sqrt(MaxUint64), the largest value whose square fits in a uint64.
const maxSquarable = 4294967295

func midSquare(key string) uint64 {
	var n uint64
	i := uint64(1)
	for _, r := range key {
		n += uint64(r) * i
		i++
	}
	var digits string
	if n <= maxSquarable {
		digits = strconv.FormatUint(n*n, 10)
	} else {
		b := new(big.Int).SetUint64(n)
		digits = b.Mul(b, b).String()
	}
	switch l := len(digits); {
	case l >= 6:
		start := (l - 4) / 2
		digits = digits[start : start+4]
	case l >= 4:
		start := (l - 2) / 2
		digits = digits[start : start+2]
	}
	v, _ := strconv.ParseUint(digits, 10, 64)
	return v
}

// weight is the unweighted code point sum used as the probe step.
func weight(key string) uint64 {
	var w uint64
	for _, r := range key {
		w += uint64(r)
	}
	return w
}

// nextPrime returns the smallest prime >= n.
func nextPrime(n int) int {
	if n <= 2 {
		return 2
	}
	if n%2 == 0 {
		n++
	}
	for !isPrime(n) {
		n += 2
	}
	return n
}

func isPrime(n int) bool {
	if n < 2 {
		return false
	}
	if n%2 == 0 {
		return n == 2
	}
	for d := 3; d*d <= n; d += 2 {
		if n%d == 0 {
			return false
		}
	}
	return true
}
