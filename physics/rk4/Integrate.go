package rk4

import "gonum.org/v1/gonum/mat"

// Derivative computes ds/dt of a system of ODEs at state s and time t
type Derivative func(s *mat.VecDense, t float64) []float64

// Integrate integrates an n-dimensional system of ODEs using 4-th order
// Runge-Kutta. The returned matrix has one row per time in t, the first
// being y0.
func Integrate(derivs Derivative, y0 *mat.VecDense, t []float64) *mat.Dense {
	ny := y0.Len()
	yout := mat.NewDense(len(t), ny, nil)
	yout.SetRow(0, y0.RawVector().Data)

	for i := 0; i < len(t)-1; i++ {
		thist := t[i]
		dt := t[i+1] - thist
		dt2 := dt / 2.0

		y := yout.RowView(i).(*mat.VecDense)

		k1 := mat.NewVecDense(ny, derivs(y, thist))

		input := mat.NewVecDense(ny, nil)
		input.AddScaledVec(y, dt2, k1)
		k2 := mat.NewVecDense(ny, derivs(input, thist+dt2))

		input.AddScaledVec(y, dt2, k2)
		k3 := mat.NewVecDense(ny, derivs(input, thist+dt2))

		input.AddScaledVec(y, dt, k3)
		k4 := mat.NewVecDense(ny, derivs(input, thist+dt))

		row := mat.NewVecDense(ny, nil)
		row.CopyVec(k1)
		row.AddScaledVec(row, 2.0, k2)
		row.AddScaledVec(row, 2.0, k3)
		row.AddVec(row, k4)
		row.AddScaledVec(y, dt/6.0, row)

		yout.SetRow(i+1, row.RawVector().Data)
	}
	return yout
}
