package dqn

import (
	"fmt"
	"math"

	"github.com/patrikeh/go-deep/training"
	"github.com/zeu5/pricing-rl/types"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

type layer struct {
	w *mat.Dense    // out x in
	b *mat.VecDense // out
}

// MLPApproximator is a fully connected network with two ReLU hidden layers.
// Every weight and bias is updated by an Adam solver indexed over params() in order.
type MLPApproximator struct {
	layers []layer
	solver training.Solver
	// solver iterations start at 1
	iteration int
}

var _ TrainableApproximator = &MLPApproximator{}

func NewMLPApproximator(stateSize, hidden, numActions int, lr float64, seed uint64) *MLPApproximator {
	r := rand.New(rand.NewSource(seed))
	sizes := []int{stateSize, hidden, hidden, numActions}
	layers := make([]layer, len(sizes)-1)
	for i := 0; i < len(layers); i++ {
		in, out := sizes[i], sizes[i+1]
		bound := 1 / math.Sqrt(float64(in))
		w := mat.NewDense(out, in, nil)
		b := mat.NewVecDense(out, nil)
		for j := 0; j < out; j++ {
			for k := 0; k < in; k++ {
				w.Set(j, k, (2*r.Float64()-1)*bound)
			}
			b.SetVec(j, (2*r.Float64()-1)*bound)
		}
		layers[i] = layer{w: w, b: b}
	}
	m := &MLPApproximator{
		layers: layers,
		solver: training.NewAdam(lr, 0.9, 0.999, 1e-8),
	}
	m.solver.Init(m.numParams())
	return m
}

// params are the backing slices of every weight and bias, in layer order
func (m *MLPApproximator) params() [][]float64 {
	out := make([][]float64, 0, 2*len(m.layers))
	for _, l := range m.layers {
		out = append(out, l.w.RawMatrix().Data, l.b.RawVector().Data)
	}
	return out
}

func (m *MLPApproximator) numParams() int {
	n := 0
	for _, p := range m.params() {
		n += len(p)
	}
	return n
}

func (m *MLPApproximator) NumActions() int {
	r, _ := m.layers[len(m.layers)-1].w.Dims()
	return r
}

// forward returns the input of every layer followed by the output
func (m *MLPApproximator) forward(s types.State) []*mat.VecDense {
	acts := make([]*mat.VecDense, 0, len(m.layers)+1)
	x := mat.NewVecDense(len(s), append([]float64(nil), s...))
	acts = append(acts, x)
	for i, l := range m.layers {
		out, _ := l.w.Dims()
		z := mat.NewVecDense(out, nil)
		z.MulVec(l.w, x)
		z.AddVec(z, l.b)
		if i < len(m.layers)-1 {
			relu(z)
		}
		acts = append(acts, z)
		x = z
	}
	return acts
}

func relu(v *mat.VecDense) {
	data := v.RawVector().Data
	for i, x := range data {
		if x < 0 {
			data[i] = 0
		}
	}
}

func (m *MLPApproximator) Evaluate(s types.State) []float64 {
	acts := m.forward(s)
	return acts[len(acts)-1].RawVector().Data
}

func (m *MLPApproximator) SynchronizeFrom(other ValueApproximator) error {
	o, ok := other.(*MLPApproximator)
	if !ok || len(o.layers) != len(m.layers) {
		return fmt.Errorf("%w: cannot copy %T into mlp", ErrIncompatibleApproximator, other)
	}
	for i := range m.layers {
		r, c := m.layers[i].w.Dims()
		or, oc := o.layers[i].w.Dims()
		if r != or || c != oc {
			return fmt.Errorf("%w: layer %d shape %dx%d, source %dx%d", ErrIncompatibleApproximator, i, r, c, or, oc)
		}
	}
	for i := range m.layers {
		m.layers[i].w.Copy(o.layers[i].w)
		m.layers[i].b.CopyVec(o.layers[i].b)
	}
	return nil
}

func (m *MLPApproximator) ApplyGradientStep(states []types.State, actions []int, grads []float64, bound float64) error {
	if err := checkBatch(states, actions, grads, m.NumActions()); err != nil {
		return err
	}
	_, inSize := m.layers[0].w.Dims()
	gw := make([]*mat.Dense, len(m.layers))
	gb := make([]*mat.VecDense, len(m.layers))
	for i, l := range m.layers {
		r, c := l.w.Dims()
		gw[i] = mat.NewDense(r, c, nil)
		gb[i] = mat.NewVecDense(r, nil)
	}

	for n, s := range states {
		if len(s) != inSize {
			return fmt.Errorf("%w: state of size %d, expected %d", ErrInvalidConfig, len(s), inSize)
		}
		acts := m.forward(s)
		delta := mat.NewVecDense(m.NumActions(), nil)
		delta.SetVec(actions[n], grads[n])
		for i := len(m.layers) - 1; i >= 0; i-- {
			input := acts[i]
			gw[i].RankOne(gw[i], 1, delta, input)
			gb[i].AddVec(gb[i], delta)
			if i == 0 {
				break
			}
			_, in := m.layers[i].w.Dims()
			prev := mat.NewVecDense(in, nil)
			prev.MulVec(m.layers[i].w.T(), delta)
			// relu derivative of the hidden activation feeding this layer
			for k := 0; k < in; k++ {
				if input.AtVec(k) <= 0 {
					prev.SetVec(k, 0)
				}
			}
			delta = prev
		}
	}

	flat := make([][]float64, 0, 2*len(m.layers))
	for i := range m.layers {
		flat = append(flat, gw[i].RawMatrix().Data, gb[i].RawVector().Data)
	}
	for _, g := range flat {
		clip(g, bound)
	}
	m.iteration++
	idx := 0
	for i, p := range m.params() {
		g := flat[i]
		for j := range p {
			p[j] += m.solver.Update(p[j], g[j], m.iteration, idx)
			idx++
		}
	}
	return nil
}
