package dqn

import (
	"fmt"
	"math"

	"github.com/zeu5/pricing-rl/types"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// LinearApproximator evaluates W*s + b, trained with plain gradient descent
type LinearApproximator struct {
	w  *mat.Dense
	b  *mat.VecDense
	lr float64
}

var _ TrainableApproximator = &LinearApproximator{}

func NewLinearApproximator(stateSize, numActions int, lr float64, seed uint64) *LinearApproximator {
	r := rand.New(rand.NewSource(seed))
	bound := 1 / math.Sqrt(float64(stateSize))
	w := mat.NewDense(numActions, stateSize, nil)
	for i := 0; i < numActions; i++ {
		for j := 0; j < stateSize; j++ {
			w.Set(i, j, (2*r.Float64()-1)*bound)
		}
	}
	return &LinearApproximator{
		w:  w,
		b:  mat.NewVecDense(numActions, nil),
		lr: lr,
	}
}

func (l *LinearApproximator) NumActions() int {
	r, _ := l.w.Dims()
	return r
}

func (l *LinearApproximator) Evaluate(s types.State) []float64 {
	out := mat.NewVecDense(l.NumActions(), nil)
	out.MulVec(l.w, mat.NewVecDense(len(s), s))
	out.AddVec(out, l.b)
	return out.RawVector().Data
}

func (l *LinearApproximator) SynchronizeFrom(other ValueApproximator) error {
	o, ok := other.(*LinearApproximator)
	if !ok {
		return fmt.Errorf("%w: cannot copy %T into linear", ErrIncompatibleApproximator, other)
	}
	r, c := l.w.Dims()
	or, oc := o.w.Dims()
	if r != or || c != oc {
		return fmt.Errorf("%w: shape %dx%d, source %dx%d", ErrIncompatibleApproximator, r, c, or, oc)
	}
	l.w.Copy(o.w)
	l.b.CopyVec(o.b)
	return nil
}

func (l *LinearApproximator) ApplyGradientStep(states []types.State, actions []int, grads []float64, bound float64) error {
	if err := checkBatch(states, actions, grads, l.NumActions()); err != nil {
		return err
	}
	r, c := l.w.Dims()
	gw := mat.NewDense(r, c, nil)
	gb := make([]float64, r)
	for i, s := range states {
		if len(s) != c {
			return fmt.Errorf("%w: state of size %d, expected %d", ErrInvalidConfig, len(s), c)
		}
		row := gw.RawRowView(actions[i])
		for j, v := range s {
			row[j] += grads[i] * v
		}
		gb[actions[i]] += grads[i]
	}
	clip(gw.RawMatrix().Data, bound)
	clip(gb, bound)

	l.w.Sub(l.w, scaled(gw, l.lr))
	l.b.AddScaledVec(l.b, -l.lr, mat.NewVecDense(r, gb))
	return nil
}

func scaled(m *mat.Dense, f float64) *mat.Dense {
	var out mat.Dense
	out.Scale(f, m)
	return &out
}
