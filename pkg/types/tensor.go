package types

import "fmt"

// Tensor is a dense row-major float32 array. It carries no numerical meaning
// in this module; it only has to have the right shape for downstream code.
type Tensor struct {
	Shape []int     `json:"shape"`
	Data  []float32 `json:"-"`
}

// NewTensor allocates a zero-filled tensor of the given shape.
func NewTensor(shape ...int) Tensor {
	s := append([]int(nil), shape...)
	return Tensor{Shape: s, Data: make([]float32, numel(s))}
}

// TokensTensor builds a rank-1 tensor holding token ids, the layout the first
// pipeline stage expects.
func TokensTensor(tokens []int) Tensor {
	t := NewTensor(len(tokens))
	for i, id := range tokens {
		t.Data[i] = float32(id)
	}
	return t
}

func (t Tensor) Rank() int { return len(t.Shape) }

// Dim returns the size of dimension i, or an error when the tensor has fewer
// than i+1 dimensions.
func (t Tensor) Dim(i int) (int, error) {
	if i < 0 || i >= len(t.Shape) {
		return 0, fmt.Errorf("dim %d out of range for shape %v", i, t.Shape)
	}
	return t.Shape[i], nil
}

func (t Tensor) Numel() int { return numel(t.Shape) }

// ArgmaxLast returns the index of the largest value along the trailing
// dimension at the last position of the second-to-last dimension.
func (t Tensor) ArgmaxLast() (int, error) {
	if t.Rank() == 0 || len(t.Data) == 0 {
		return 0, fmt.Errorf("argmax: empty tensor")
	}
	width := t.Shape[t.Rank()-1]
	if width <= 0 || len(t.Data) < width {
		return 0, fmt.Errorf("argmax: bad trailing dim in shape %v", t.Shape)
	}
	row := t.Data[len(t.Data)-width:]
	best := 0
	for i, v := range row {
		if v > row[best] {
			best = i
		}
	}
	return best, nil
}

func numel(shape []int) int {
	if len(shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
