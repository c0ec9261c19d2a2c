// Package msort provides a stable, key-based merge sort.
package msort

import (
	"cmp"
	"slices"
)

// SortBy returns a new slice holding the elements of s ordered by key.
//
// Elements with equal keys keep their relative order. s is not modified.
func SortBy[T any, K cmp.Ordered](s []T, key func(T) K, ascending bool) []T {
	return mergeSort(slices.Clone(s), key, ascending)
}

func mergeSort[T any, K cmp.Ordered](s []T, key func(T) K, ascending bool) []T {
	if len(s) <= 1 {
		return s
	}

	mid := len(s) / 2
	left := mergeSort(s[:mid], key, ascending)
	right := mergeSort(s[mid:], key, ascending)
	return merge(left, right, key, ascending)
}

// merge takes from left on ties, which is what keeps the sort stable.
func merge[T any, K cmp.Ordered](left, right []T, key func(T) K, ascending bool) []T {
	res := make([]T, 0, len(left)+len(right))

	i, j := 0, 0
	for i < len(left) && j < len(right) {
		l, r := key(left[i]), key(right[j])

		takeLeft := l <= r
		if !ascending {
			takeLeft = l >= r
		}

		if takeLeft {
			res = append(res, left[i])
			i++
		} else {
			res = append(res, right[j])
			j++
		}
	}

	res = append(res, left[i:]...)
	return append(res, right[j:]...)
}
