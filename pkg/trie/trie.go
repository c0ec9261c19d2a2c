// Package trie implements a case-insensitive prefix tree used for search
// autocomplete.
//
// Children are visited in the order they were first inserted, so suggestion
// order is reproducible for a given insertion sequence.
package trie

import (
	"iter"
	"slices"
	"strings"
)

// DefaultLimit is the number of suggestions returned when the caller has no
// preference.
const DefaultLimit = 8

type node struct {
	children map[rune]*node
	order    []rune
	terminal bool
}

func newNode() *node {
	return &node{children: make(map[rune]*node)}
}

func (n *node) child(r rune) (*node, bool) {
	c, ok := n.children[r]
	return c, ok
}

func (n *node) addChild(r rune) *node {
	if c, ok := n.children[r]; ok {
		return c
	}
	c := newNode()
	n.children[r] = c
	n.order = append(n.order, r)
	return c
}

// A Trie is not safe for concurrent mutation. Readers may share a Trie once
// it is no longer written to.
type Trie struct {
	root  *node
	words int
}

func New() *Trie {
	return &Trie{root: newNode()}
}

// Insert adds the lowercase form of word. Inserting the same word again has
// no effect. The empty word is ignored.
func (t *Trie) Insert(word string) {
	if word == "" {
		return
	}

	n := t.root
	for _, r := range strings.ToLower(word) {
		n = n.addChild(r)
	}

	if !n.terminal {
		n.terminal = true
		t.words++
	}
}

// Len returns the number of distinct indexed words.
func (t *Trie) Len() int {
	return t.words
}

// Contains reports whether word was inserted, ignoring case.
func (t *Trie) Contains(word string) bool {
	n, ok := t.walk(strings.ToLower(word))
	return ok && n.terminal
}

// Suggestions returns the indexed words starting with prefix, ignoring case,
// bounded by limit. The sequence is computed on each iteration.
func (t *Trie) Suggestions(prefix string, limit int) iter.Seq[string] {
	lower := strings.ToLower(prefix)

	return func(yield func(string) bool) {
		if limit <= 0 {
			return
		}

		n, ok := t.walk(lower)
		if !ok {
			return
		}

		buf := []rune(lower)
		found := 0
		collect(n, buf, func(word string) bool {
			found++
			return yield(word) && found < limit
		})
	}
}

// Suggest collects [Trie.Suggestions] into a slice.
func (t *Trie) Suggest(prefix string, limit int) []string {
	out := slices.Collect(t.Suggestions(prefix, limit))
	if out == nil {
		return []string{}
	}
	return out
}

func (t *Trie) walk(lowerPrefix string) (*node, bool) {
	n := t.root
	for _, r := range lowerPrefix {
		c, ok := n.child(r)
		if !ok {
			return nil, false
		}
		n = c
	}
	return n, true
}

// collect visits terminal nodes depth-first. It returns false once emit asks
// to stop.
func collect(n *node, path []rune, emit func(string) bool) bool {
	if n.terminal {
		if !emit(string(path)) {
			return false
		}
	}

	for _, r := range n.order {
		if !collect(n.children[r], append(path, r), emit) {
			return false
		}
	}
	return true
}
