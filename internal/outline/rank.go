package outline

import (
	"sort"

	"curriculum-cli/internal/model"
)

// ArrayMove returns a copy of s with the element at from removed and reinserted at to.
// Siblings between the two indices shift by one; nothing is swapped.
func ArrayMove[T any](s []T, from, to int) []T {
	out := append([]T(nil), s...)
	if from < 0 || from >= len(out) {
		return out
	}
	if to < 0 {
		to = 0
	}
	if to >= len(out) {
		to = len(out) - 1
	}
	if from == to {
		return out
	}
	moved := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]T{moved}, out[to:]...)...)
	return out
}

// Reindex assigns every entry its 1-based position as rank.
func Reindex(entries []model.Entry) []model.Entry {
	out := append([]model.Entry(nil), entries...)
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// IsDense reports whether the ranks of entries, in order, are exactly 1..N.
func IsDense(entries []model.Entry) bool {
	for i, e := range entries {
		if e.Rank != i+1 {
			return false
		}
	}
	return true
}

// IndexOf returns the position of id in entries, or -1.
func IndexOf(entries []model.Entry, id string) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// RankUpdates converts entries into the complete rank assignment for a container.
func RankUpdates(entries []model.Entry) []model.RankUpdate {
	out := make([]model.RankUpdate, 0, len(entries))
	for _, e := range entries {
		out = append(out, model.RankUpdate{ID: e.ID, Position: e.Rank})
	}
	return out
}

func sortChaptersByRank(chs []model.Chapter) {
	sort.SliceStable(chs, func(i, j int) bool { return chs[i].Rank < chs[j].Rank })
}

func sortLessonsByRank(ls []model.Lesson) {
	sort.SliceStable(ls, func(i, j int) bool { return ls[i].Rank < ls[j].Rank })
}
