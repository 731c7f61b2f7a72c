package extract

import (
	"fmt"
	"math"

	"github.com/maorshutman/lm"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/ironsheep/source-extract/internal/skyimage"
)

// Solver limits. The iteration cap bounds the time spent on a fit that does
// not converge.
const (
	fitIterations   = 1000
	fitObjectiveTol = 1e-16
)

// GaussianFit holds the parameters of an axis-aligned 2D Gaussian in the
// beam-rotated frame: A·exp(-(u-X0)²/2σx² - (v-Y0)²/2σy²). Offsets and
// widths are in degrees.
type GaussianFit struct {
	Amplitude float64 `json:"amplitude"`
	X0        float64 `json:"x0_deg"`
	Y0        float64 `json:"y0_deg"`
	SigmaX    float64 `json:"sigma_x_deg"`
	SigmaY    float64 `json:"sigma_y_deg"`
}

// FitFailure describes why a Gaussian fit or its model evaluation produced
// no usable result. It never escapes Extract; the caller substitutes a zero
// integrated flux and an all-zero model.
type FitFailure struct {
	Reason string
	Err    error
}

func (f *FitFailure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("gaussian fit failed: %s: %v", f.Reason, f.Err)
	}
	return "gaussian fit failed: " + f.Reason
}

func (f *FitFailure) Unwrap() error { return f.Err }

// FitGaussian fits a GaussianFit to samples z at rotated coordinates (u, v)
// with Levenberg-Marquardt, starting from init.
//
// The problem is solved in units of scale (degrees) for the coordinates and
// init.Amplitude for the values, which keeps the Jacobian well conditioned
// for beams a few arcseconds across.
func FitGaussian(u, v, z []float64, init GaussianFit, scale float64) (GaussianFit, *FitFailure) {
	const dim = 5
	if len(z) < dim {
		return GaussianFit{}, &FitFailure{Reason: fmt.Sprintf("%d samples for %d parameters", len(z), dim)}
	}
	amp := init.Amplitude
	if amp == 0 || math.IsNaN(amp) || math.IsInf(amp, 0) {
		return GaussianFit{}, &FitFailure{Reason: fmt.Sprintf("initial amplitude %g", amp)}
	}
	if !(scale > 0) {
		return GaussianFit{}, &FitFailure{Reason: fmt.Sprintf("coordinate scale %g", scale)}
	}

	un := make([]float64, len(u))
	vn := make([]float64, len(v))
	zn := make([]float64, len(z))
	for i := range z {
		un[i] = u[i] / scale
		vn[i] = v[i] / scale
		zn[i] = z[i] / amp
	}

	f := func(dst, p []float64) {
		a, x0, y0, sx, sy := p[0], p[1], p[2], p[3], p[4]
		for i := range zn {
			du := un[i] - x0
			dv := vn[i] - y0
			dst[i] = a*math.Exp(-du*du/(2*sx*sx)-dv*dv/(2*sy*sy)) - zn[i]
		}
	}

	jacobian := lm.NumJac{Func: f}

	problem := lm.LMProblem{
		Dim:  dim,
		Size: len(zn),
		Func: f,
		Jac:  jacobian.Jac,
		InitParams: []float64{
			1,
			init.X0 / scale,
			init.Y0 / scale,
			init.SigmaX / scale,
			init.SigmaY / scale,
		},
		Tau:  1e-6,
		Eps1: 1e-8,
		Eps2: 1e-8,
	}

	results, err := lm.LM(problem, &lm.Settings{Iterations: fitIterations, ObjectiveTol: fitObjectiveTol})
	if err != nil {
		return GaussianFit{}, &FitFailure{Reason: "solver", Err: err}
	}

	p := results.X
	fit := GaussianFit{
		Amplitude: p[0] * amp,
		X0:        p[1] * scale,
		Y0:        p[2] * scale,
		SigmaX:    math.Abs(p[3]) * scale,
		SigmaY:    math.Abs(p[4]) * scale,
	}
	for _, x := range []float64{fit.Amplitude, fit.X0, fit.Y0, fit.SigmaX, fit.SigmaY} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fit, &FitFailure{Reason: fmt.Sprintf("non-finite parameters %+v", fit)}
		}
	}
	return fit, nil
}

// ModelSurface evaluates the zero-mean bivariate normal with covariance
// diag(σx², σy²) at every (u, v) and rescales it so its maximum equals the
// fitted amplitude.
//
// A singular covariance, a non-finite amplitude or a surface whose maximum
// is zero is reported as a FitFailure.
func ModelSurface(fit GaussianFit, u, v *skyimage.Plane) (*skyimage.Plane, *FitFailure) {
	if math.IsNaN(fit.Amplitude) || math.IsInf(fit.Amplitude, 0) {
		return nil, &FitFailure{Reason: fmt.Sprintf("amplitude %g", fit.Amplitude)}
	}

	cov := mat.NewSymDense(2, []float64{
		fit.SigmaX * fit.SigmaX, 0,
		0, fit.SigmaY * fit.SigmaY,
	})
	normal, ok := distmv.NewNormal([]float64{0, 0}, cov, nil)
	if !ok {
		return nil, &FitFailure{Reason: fmt.Sprintf("singular covariance (σx=%g, σy=%g)", fit.SigmaX, fit.SigmaY)}
	}

	model := skyimage.NewPlane(u.Rows, u.Cols)
	peak := 0.0
	x := make([]float64, 2)
	for i := range model.Data {
		x[0], x[1] = u.Data[i], v.Data[i]
		pdf := normal.Prob(x)
		model.Data[i] = pdf
		if pdf > peak {
			peak = pdf
		}
	}
	if !(peak > 0) || math.IsInf(peak, 0) {
		return nil, &FitFailure{Reason: fmt.Sprintf("model peak %g", peak)}
	}

	k := fit.Amplitude / peak
	for i := range model.Data {
		model.Data[i] *= k
	}
	return model, nil
}
