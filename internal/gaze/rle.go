package gaze

// Run is a maximal group of consecutive equal labels.
type Run[T comparable] struct {
	Label  T   `json:"label"`
	Start  int `json:"start"`
	Length int `json:"length"`
}

// End returns the inclusive index of the last element in the run.
func (r Run[T]) End() int { return r.Start + r.Length - 1 }

// Compress run-length encodes labels. Group boundaries are the indices
// where labels[i] != labels[i-1]; each group's length is the distance to
// the next boundary, with len(labels) closing the last group.
func Compress[T comparable](labels []T) []Run[T] {
	if len(labels) == 0 {
		return nil
	}

	boundaries := []int{0}
	for i := 1; i < len(labels); i++ {
		if labels[i] != labels[i-1] {
			boundaries = append(boundaries, i)
		}
	}
	boundaries = append(boundaries, len(labels))

	runs := make([]Run[T], 0, len(boundaries)-1)
	for i := 0; i < len(boundaries)-1; i++ {
		start := boundaries[i]
		runs = append(runs, Run[T]{
			Label:  labels[start],
			Start:  start,
			Length: boundaries[i+1] - start,
		})
	}
	return runs
}

// Expand is the inverse of Compress.
func Expand[T comparable](runs []Run[T]) []T {
	n := 0
	for _, r := range runs {
		n += r.Length
	}
	out := make([]T, 0, n)
	for _, r := range runs {
		for j := 0; j < r.Length; j++ {
			out = append(out, r.Label)
		}
	}
	return out
}

// RunsOf filters runs down to those carrying label.
func RunsOf[T comparable](runs []Run[T], label T) []Run[T] {
	var out []Run[T]
	for _, r := range runs {
		if r.Label == label {
			out = append(out, r)
		}
	}
	return out
}
