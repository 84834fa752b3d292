package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
)

// padFactor oversamples the spectrum so the peak can be located to a
// fraction of the natural bin width.
const padFactor = 4

var ErrShortSeries = errors.New("analysis: series too short for a spectrum")

func FFT(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	if n%2 != 0 {
		panic("fft requires power of 2 length")
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)

	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := FFT(even)
	fodd := FFT(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}

	return result
}

func PowerSpectrum(data []float64) []float64 {
	fft := FFT(data)
	ps := make([]float64, len(fft)/2)

	for i := range ps {
		ps[i] = cmplx.Abs(fft[i])
	}

	return ps
}

// NextPow2 is the smallest power of two >= n.
func NextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// DominantFrequency returns the frequency in Hz of the largest non-DC peak
// of series sampled every dt. The mean is removed, the series is zero-padded
// and the peak refined by parabolic interpolation between neighbouring bins.
func DominantFrequency(series []float64, dt float64) (float64, error) {
	if len(series) < 4 {
		return 0, ErrShortSeries
	}
	if !(dt > 0) {
		return 0, errors.New("analysis: sample interval must be positive")
	}

	n := padFactor * NextPow2(len(series))
	padded := make([]float64, n)
	copy(padded, series)
	mean := floats.Sum(series) / float64(len(series))
	floats.AddConst(-mean, padded[:len(series)])

	ps := PowerSpectrum(padded)
	k := floats.MaxIdx(ps[1:]) + 1

	offset := 0.0
	if k+1 < len(ps) {
		a, b, c := ps[k-1], ps[k], ps[k+1]
		if d := a - 2*b + c; d != 0 {
			offset = 0.5 * (a - c) / d
		}
	}
	return (float64(k) + offset) / (float64(n) * dt), nil
}
