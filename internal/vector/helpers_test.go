package vector

type sliceSource struct {
	ids  []string
	vecs [][]float32
}

func newSliceSource(ids []string, vecs [][]float32) *sliceSource {
	return &sliceSource{ids: ids, vecs: vecs}
}

func (s *sliceSource) Dimension() int {
	if len(s.vecs) == 0 {
		return 0
	}
	return len(s.vecs[0])
}
func (s *sliceSource) Len() int                 { return len(s.ids) }
func (s *sliceSource) ID(pos int) string        { return s.ids[pos] }
func (s *sliceSource) Vector(pos int) []float32 { return s.vecs[pos] }

// abc is the three-entity example catalog: A and C are close, B is far from both.
func abc() *sliceSource {
	return newSliceSource(
		[]string{"A", "B", "C"},
		[][]float32{{1, 0}, {0, 1}, {0.9, 0.1}},
	)
}

func neighborIDs(ns []Neighbor) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
