// Package partition enumerates every way to split a phrase into
// contiguous word groups.
package partition

import (
	"strings"

	"github.com/heartmarshall/quotespell/internal/domain"
)

// Partition is an ordered list of groups covering a phrase's words exactly
// once. Each group is a candidate title: one or more words joined by a
// single space.
type Partition []string

// Words re-splits the groups into the underlying word sequence.
func (p Partition) Words() []string {
	words := make([]string, 0, len(p))
	for _, g := range p {
		words = append(words, strings.Split(g, " ")...)
	}
	return words
}

// Generate normalizes raw and returns all of its partitions in
// depth-first order.
func Generate(raw string) []Partition {
	return FromWords(domain.Words(domain.NormalizePhrase(raw)))
}

// FromWords returns the 2^(n-1) partitions of words. At each word the
// branch that starts a new group is explored before the branch that
// extends the previous group, so the result begins with one group per
// word and ends with the whole phrase as a single group. An empty word
// list yields one empty partition.
func FromWords(words []string) []Partition {
	out := make([]Partition, 0, Count(len(words)))
	current := make([]string, 0, len(words))

	var walk func(i int)
	walk = func(i int) {
		if i == len(words) {
			snapshot := make(Partition, len(current))
			copy(snapshot, current)
			out = append(out, snapshot)
			return
		}

		current = append(current, words[i])
		walk(i + 1)
		current = current[:len(current)-1]

		if len(current) > 0 {
			last := current[len(current)-1]
			current[len(current)-1] = last + " " + words[i]
			walk(i + 1)
			current[len(current)-1] = last
		}
	}
	walk(0)

	return out
}

// Count reports how many partitions an n-word phrase has.
func Count(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << (n - 1)
}
