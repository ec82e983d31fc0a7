package anomaly

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

type activation int

const (
	linear activation = iota
	relu
)

// dense is one fully connected layer with its Adam moment estimates.
type dense struct {
	w   *mat.Dense // in x out
	b   []float64
	act activation

	mw, vw []float64
	mb, vb []float64

	// forward cache of the last batch
	in *mat.Dense
	z  *mat.Dense
}

func newDense(in, out int, act activation, rng *rand.Rand) *dense {
	limit := math.Sqrt(6 / float64(in+out))
	data := make([]float64, in*out)
	for i := range data {
		data[i] = (rng.Float64()*2 - 1) * limit
	}
	return &dense{
		w:   mat.NewDense(in, out, data),
		b:   make([]float64, out),
		act: act,
		mw:  make([]float64, in*out),
		vw:  make([]float64, in*out),
		mb:  make([]float64, out),
		vb:  make([]float64, out),
	}
}

func (l *dense) forward(x *mat.Dense) *mat.Dense {
	rows, _ := x.Dims()
	_, out := l.w.Dims()
	z := mat.NewDense(rows, out, nil)
	z.Mul(x, l.w)
	for i := 0; i < rows; i++ {
		floats.Add(z.RawRowView(i), l.b)
	}
	l.in, l.z = x, z
	if l.act == linear {
		return z
	}
	a := mat.NewDense(rows, out, nil)
	a.Apply(func(_, _ int, v float64) float64 { return math.Max(0, v) }, z)
	return a
}

// backward takes dL/dA of this layer's output and returns dL/dA of its
// input together with the parameter gradients.
func (l *dense) backward(grad *mat.Dense) (prev *mat.Dense, gw *mat.Dense, gb []float64) {
	rows, out := grad.Dims()
	delta := mat.NewDense(rows, out, nil)
	if l.act == relu {
		delta.Apply(func(i, j int, v float64) float64 {
			if l.z.At(i, j) > 0 {
				return v
			}
			return 0
		}, grad)
	} else {
		delta.Copy(grad)
	}

	in, _ := l.w.Dims()
	gw = mat.NewDense(in, out, nil)
	gw.Mul(l.in.T(), delta)
	gb = make([]float64, out)
	for i := 0; i < rows; i++ {
		floats.Add(gb, delta.RawRowView(i))
	}
	prev = mat.NewDense(rows, in, nil)
	prev.Mul(delta, l.w.T())
	return prev, gw, gb
}

// adam holds the optimizer constants and step counter.
type adam struct {
	lr, beta1, beta2, eps float64
	t                     int
}

func (o *adam) step(params, grads, m, v []float64) {
	b1t := 1 - math.Pow(o.beta1, float64(o.t))
	b2t := 1 - math.Pow(o.beta2, float64(o.t))
	lr := o.lr * math.Sqrt(b2t) / b1t
	for i, g := range grads {
		m[i] = o.beta1*m[i] + (1-o.beta1)*g
		v[i] = o.beta2*v[i] + (1-o.beta2)*g*g
		params[i] -= lr * m[i] / (math.Sqrt(v[i]) + o.eps)
	}
}

// Autoencoder is a small dense reconstruction network
// in -> 2e (relu) -> e (relu) -> 2e (relu) -> in (linear) trained with Adam
// on mean squared error.
type Autoencoder struct {
	inputDim int
	layers   []*dense
	opt      adam
	rng      *rand.Rand
	fitted   bool
}

// NewAutoencoder initialises the weights (Glorot uniform, zero biases)
// from rng. The same rng drives mini-batch shuffling.
func NewAutoencoder(inputDim, encodingDim int, learningRate float64, rng *rand.Rand) *Autoencoder {
	wide := 2 * encodingDim
	return &Autoencoder{
		inputDim: inputDim,
		layers: []*dense{
			newDense(inputDim, wide, relu, rng),
			newDense(wide, encodingDim, relu, rng),
			newDense(encodingDim, wide, relu, rng),
			newDense(wide, inputDim, linear, rng),
		},
		opt: adam{lr: learningRate, beta1: 0.9, beta2: 0.999, eps: 1e-7},
		rng: rng,
	}
}

func (a *Autoencoder) forward(x *mat.Dense) *mat.Dense {
	out := x
	for _, l := range a.layers {
		out = l.forward(out)
	}
	return out
}

// Fit trains on x for the given epochs, reshuffling mini-batches every
// epoch. It returns ctx.Err() at the first epoch boundary after
// cancellation. The returned value is the final epoch's mean loss.
func (a *Autoencoder) Fit(ctx context.Context, x [][]float64, epochs, batchSize int) (float64, error) {
	if len(x) == 0 {
		return 0, fmt.Errorf("fit: %w", ErrNoHealthyData)
	}
	if batchSize < 1 {
		batchSize = 1
	}
	var loss float64
	for epoch := 0; epoch < epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return loss, err
		}
		order := a.rng.Perm(len(x))
		var sum float64
		for start := 0; start < len(order); start += batchSize {
			end := start + batchSize
			if end > len(order) {
				end = len(order)
			}
			batch := a.batch(x, order[start:end])
			sum += a.trainBatch(batch) * float64(end-start)
		}
		loss = sum / float64(len(x))
	}
	a.fitted = true
	return loss, nil
}

func (a *Autoencoder) batch(x [][]float64, idx []int) *mat.Dense {
	m := mat.NewDense(len(idx), a.inputDim, nil)
	for r, i := range idx {
		m.SetRow(r, x[i])
	}
	return m
}

func (a *Autoencoder) trainBatch(x *mat.Dense) float64 {
	y := a.forward(x)
	rows, cols := y.Dims()
	n := float64(rows * cols)

	grad := mat.NewDense(rows, cols, nil)
	grad.Sub(y, x)
	diff := grad.RawMatrix().Data
	loss := floats.Dot(diff, diff) / n
	grad.Scale(2/n, grad)

	a.opt.t++
	for i := len(a.layers) - 1; i >= 0; i-- {
		l := a.layers[i]
		prev, gw, gb := l.backward(grad)
		a.opt.step(l.w.RawMatrix().Data, gw.RawMatrix().Data, l.mw, l.vw)
		a.opt.step(l.b, gb, l.mb, l.vb)
		grad = prev
	}
	return loss
}

// Reconstruct runs the network on each row.
func (a *Autoencoder) Reconstruct(x [][]float64) ([][]float64, error) {
	if !a.fitted {
		return nil, ErrNotFitted
	}
	if len(x) == 0 {
		return nil, nil
	}
	y := a.forward(a.batch(x, seq(len(x))))
	out := make([][]float64, len(x))
	for i := range out {
		out[i] = mat.Row(nil, i, y)
	}
	return out, nil
}

// Errors returns the per-row mean squared reconstruction error.
func (a *Autoencoder) Errors(x [][]float64) ([]float64, error) {
	y, err := a.Reconstruct(x)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	diff := make([]float64, a.inputDim)
	for i := range x {
		floats.SubTo(diff, x[i], y[i])
		out[i] = floats.Dot(diff, diff) / float64(a.inputDim)
	}
	return out, nil
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
