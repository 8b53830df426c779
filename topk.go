package cbc

import "sort"

// scored is an id with the score it was ranked by.
type scored struct {
	ID    int
	Score float64
}

// topK keeps the k best ids seen so far in a min-heap whose root is the worst
// retained item. Higher scores win; on equal scores the lower id wins, so the
// retained set does not depend on the order items are offered in.
type topK struct {
	k     int
	items []scored
}

func newTopK(k int) *topK {
	if k < 0 {
		k = 0
	}
	return &topK{k: k, items: make([]scored, 0, k)}
}

// worse reports whether a ranks below b.
func worse(a, b scored) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.ID > b.ID
}

// Offer considers id for inclusion.
func (t *topK) Offer(id int, score float64) {
	item := scored{ID: id, Score: score}
	if len(t.items) < t.k {
		t.items = append(t.items, item)
		t.siftUp(len(t.items) - 1)
		return
	}
	if t.k == 0 || !worse(t.items[0], item) {
		return
	}
	t.items[0] = item
	t.siftDown(0)
}

// Sorted returns the retained items best first.
func (t *topK) Sorted() []scored {
	out := make([]scored, len(t.items))
	copy(out, t.items)
	sort.Slice(out, func(a, b int) bool { return worse(out[b], out[a]) })
	return out
}

// IDs returns the retained ids best first.
func (t *topK) IDs() []int {
	sorted := t.Sorted()
	ids := make([]int, len(sorted))
	for i, s := range sorted {
		ids[i] = s.ID
	}
	return ids
}

func (t *topK) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !worse(t.items[i], t.items[p]) {
			return
		}
		t.items[i], t.items[p] = t.items[p], t.items[i]
		i = p
	}
}

func (t *topK) siftDown(i int) {
	n := len(t.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		least := l
		if r := l + 1; r < n && worse(t.items[r], t.items[l]) {
			least = r
		}
		if !worse(t.items[least], t.items[i]) {
			return
		}
		t.items[i], t.items[least] = t.items[least], t.items[i]
		i = least
	}
}
