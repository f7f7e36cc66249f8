package embedding

// ONNXOptions describes an ONNX sentence-embedding model.
type ONNXOptions struct {
	ModelPath  string
	Dimensions int
	MaxTokens  int
	// OutputName is the graph output holding the embedding.
	OutputName string
	// MeanPooling averages a [tokens][Dimensions] output over the attention mask.
	MeanPooling bool
}

func (o ONNXOptions) withDefaults() ONNXOptions {
	if o.MaxTokens <= 0 {
		o.MaxTokens = 256
	}
	if o.Dimensions <= 0 {
		o.Dimensions = 384
	}
	if o.OutputName == "" {
		o.OutputName = "last_hidden_state"
		o.MeanPooling = true
	}
	return o
}

// meanPool averages the token vectors in hidden ([tokens][dim], row-major) whose
// mask entry is set. A mask with no set entries yields the zero vector.
func meanPool(hidden []float32, mask []int64, dim int) []float32 {
	sum := make([]float64, dim)
	n := 0
	for tok, m := range mask {
		if m == 0 || (tok+1)*dim > len(hidden) {
			continue
		}
		for i, v := range hidden[tok*dim : (tok+1)*dim] {
			sum[i] += float64(v)
		}
		n++
	}
	vec := make([]float32, dim)
	if n == 0 {
		return vec
	}
	for i, v := range sum {
		vec[i] = float32(v / float64(n))
	}
	return vec
}
