package core

import (
	"errors"
	"fmt"

	"empower1.com/empower1blockchain/internal/crypto"
)

// ErrDifficultyExceedsMaximum is returned by Difficulty.Increase once the
// threshold has already been halved down to its last representable byte;
// increasing it further would run off the end of the 32-byte array.
var ErrDifficultyExceedsMaximum = errors.New("core: difficulty exceeds maximum representable value")

// Difficulty is a 256-bit threshold T. A header hash h satisfies the
// proof-of-work requirement iff h < T, compared byte-wise, most
// significant byte first.
type Difficulty struct {
	threshold crypto.Hash
}

// MinDifficulty returns the threshold that accepts every hash: every byte
// set to 0xFF.
func MinDifficulty() Difficulty {
	var d Difficulty
	for i := range d.threshold {
		d.threshold[i] = 0xFF
	}
	return d
}

// DifficultyFromThreshold wraps an already-computed threshold, e.g. when
// copying a difficulty from an existing chain head.
func DifficultyFromThreshold(t crypto.Hash) Difficulty {
	return Difficulty{threshold: t}
}

// Threshold returns the 32-byte threshold value.
func (d Difficulty) Threshold() crypto.Hash {
	return d.threshold
}

// Satisfies reports whether h satisfies this difficulty's proof-of-work
// requirement: h < threshold, byte-wise.
func (d Difficulty) Satisfies(h crypto.Hash) bool {
	return h.Less(d.threshold)
}

// Equal reports whether two difficulties share the same threshold.
func (d Difficulty) Equal(other Difficulty) bool {
	return d.threshold.Equal(other.threshold)
}

// Increase halves the threshold, monotonically raising the difficulty of
// finding a satisfying hash. It finds the lowest-index non-zero byte and
// integer-divides it by two; if that division reaches zero, it zeroes that
// byte and seeds the next byte with 0x7F. Fails with
// ErrDifficultyExceedsMaximum if there is no next byte to seed.
func (d *Difficulty) Increase() error {
	index := 0
	for d.threshold[index] == 0 {
		index++
		if index == len(d.threshold) {
			return fmt.Errorf("%w: threshold is entirely zero", ErrDifficultyExceedsMaximum)
		}
	}

	d.threshold[index] /= 2

	if d.threshold[index] == 0 {
		next := index + 1
		if next == len(d.threshold) {
			return ErrDifficultyExceedsMaximum
		}
		d.threshold[next] = 0x7F
	}

	return nil
}
