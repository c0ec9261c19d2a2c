// Package rangefilter selects records whose key lies in a closed interval.
package rangefilter

import "cmp"

// Between returns the elements of s with min <= key(v) <= max, in input
// order. s is expected to be sorted ascending by key, though the result is
// correct for any order since every element is checked.
func Between[T any, K cmp.Ordered](s []T, key func(T) K, min, max K) []T {
	res := make([]T, 0, len(s))
	if min > max {
		return res
	}

	for _, v := range s {
		k := key(v)
		if k >= min && k <= max {
			res = append(res, v)
		}
	}
	return res
}
