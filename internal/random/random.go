package random

import (
	"crypto/rand"
	"math/big"
	mathrand "math/rand/v2"
)

var allowedLetters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

// Letters returns n cryptographically random ASCII letters.
func Letters(n uint) (string, error) {
	letters := make([]rune, n)
	for i := range letters {
		letterIndex, err := rand.Int(rand.Reader, big.NewInt(int64(len(allowedLetters))))
		if err != nil {
			return "", err
		}
		letters[i] = allowedLetters[letterIndex.Int64()]
	}
	return string(letters), nil
}

// ID returns a cryptographically random positive int64, used for anonymous
// player identities.
func ID() (int64, error) {
	max := big.NewInt(0).SetUint64(1 << 62)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return 0, err
	}
	return n.Int64() + 1, nil
}

// Pick returns a uniformly random element of items. It panics on an empty slice,
// so callers must check emptiness first.
func Pick[T any](items []T) T {
	return items[mathrand.IntN(len(items))]
}

// Shuffle permutes items in place. Used for role assignment where the
// distribution only needs to be unpredictable to players, not adversaries.
func Shuffle[T any](items []T) {
	mathrand.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}

// Sample returns up to n distinct elements of items in random order.
func Sample[T any](items []T, n int) []T {
	if n > len(items) {
		n = len(items)
	}
	indices := mathrand.Perm(len(items))[:n]
	sampled := make([]T, 0, n)
	for _, i := range indices {
		sampled = append(sampled, items[i])
	}
	return sampled
}
