// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package recommend

import (
	"math"
	"math/rand"

	"github.com/tomtom215/wayfinder/internal/models"
)

// Split shuffles items with seed and holds out ceil(len*testFraction) of
// them. Both parts are non-empty whenever len(items) >= 2. The input slice
// is not modified.
func Split[T any](items []T, testFraction float64, seed int64) (train, test []T, err error) {
	if testFraction <= 0 || testFraction >= 1 || math.IsNaN(testFraction) {
		return nil, nil, models.ConfigError("split", "test fraction must be in (0, 1), got %v", testFraction)
	}
	n := len(items)
	if n < 2 {
		return nil, nil, models.InsufficientDataError("split", "need at least 2 items, got %d", n)
	}

	nTest := int(math.Ceil(float64(n) * testFraction))
	nTest = min(max(nTest, 1), n-1)

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // G404: deterministic split, not security
	perm := rng.Perm(n)

	test = make([]T, 0, nTest)
	train = make([]T, 0, n-nTest)
	for i, idx := range perm {
		if i < nTest {
			test = append(test, items[idx])
		} else {
			train = append(train, items[idx])
		}
	}
	return train, test, nil
}
