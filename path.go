package guraffic

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Curve is a clamped, uniform B-spline: it starts at its first control point, ends at its last, and is pulled
// towards the points inbetween. Curves are parametrized from 0 to 1.
type Curve struct {
	Degree int
	Points []mgl64.Vec3
	knots  []float64
}

// NewCurve creates a new B-spline of the given degree through the provided control points. There must be more
// control points than the degree.
func NewCurve(degree int, points ...mgl64.Vec3) (*Curve, error) {

	if degree < 1 {
		return nil, fmt.Errorf("curve degree %d: %w", degree, ErrMalformedFile)
	}

	if len(points) <= degree {
		return nil, fmt.Errorf("curve of degree %d needs more than %d control points, got %d: %w", degree, degree, len(points), ErrMalformedFile)
	}

	for _, p := range points {
		if !vecFinite(p) {
			return nil, fmt.Errorf("curve control point %v: %w", p, ErrNonFinite)
		}
	}

	return &Curve{
		Degree: degree,
		Points: append([]mgl64.Vec3(nil), points...),
		knots:  clampedKnots(degree, len(points)),
	}, nil

}

// clampedKnots returns a knot vector with degree+1 repeated knots at each end and uniform spacing inbetween.
func clampedKnots(degree, count int) []float64 {

	knots := make([]float64, count+degree+1)
	interior := count - degree

	for i := range knots {
		switch {
		case i <= degree:
			knots[i] = 0
		case i >= count:
			knots[i] = 1
		default:
			knots[i] = float64(i-degree) / float64(interior)
		}
	}

	return knots

}

// Point returns the position on the curve at t, which is clamped to the 0 - 1 range.
func (curve *Curve) Point(t float64) mgl64.Vec3 {
	t = math.Max(0, math.Min(1, t))
	if t >= 1 {
		return curve.Points[len(curve.Points)-1]
	}
	return deBoor(curve.Degree, curve.knots, curve.Points, t)
}

// Derivative returns the first derivative of the curve at t (the direction and speed of travel along it).
func (curve *Curve) Derivative(t float64) mgl64.Vec3 {

	p := curve.Degree
	n := len(curve.Points)

	// The derivative of a degree p B-spline is a degree p-1 B-spline over the inner knots.
	deriv := make([]mgl64.Vec3, n-1)
	for i := range deriv {
		span := curve.knots[i+p+1] - curve.knots[i+1]
		if span > 0 {
			deriv[i] = curve.Points[i+1].Sub(curve.Points[i]).Mul(float64(p) / span)
		}
	}

	t = math.Max(0, math.Min(1-1e-9, t))
	return deBoor(p-1, curve.knots[1:len(curve.knots)-1], deriv, t)

}

// Length approximates the curve's length by summing the distances between the given number of samples.
func (curve *Curve) Length(samples int) float64 {
	if samples < 1 {
		samples = 1
	}
	length := 0.0
	prev := curve.Point(0)
	for i := 1; i <= samples; i++ {
		next := curve.Point(float64(i) / float64(samples))
		length += next.Sub(prev).Len()
		prev = next
	}
	return length
}

func findSpan(knots []float64, degree, count int, t float64) int {
	for k := count - 1; k >= degree; k-- {
		if t >= knots[k] && knots[k] < knots[k+1] {
			return k
		}
	}
	return degree
}

func deBoor(degree int, knots []float64, points []mgl64.Vec3, t float64) mgl64.Vec3 {

	k := findSpan(knots, degree, len(points), t)

	d := make([]mgl64.Vec3, degree+1)
	for j := 0; j <= degree; j++ {
		d[j] = points[j+k-degree]
	}

	for r := 1; r <= degree; r++ {
		for j := degree; j >= r; j-- {
			lo := knots[j+k-degree]
			hi := knots[j+1+k-r]
			alpha := 0.0
			if hi > lo {
				alpha = (t - lo) / (hi - lo)
			}
			d[j] = d[j-1].Mul(1 - alpha).Add(d[j].Mul(alpha))
		}
	}

	return d[degree]

}

// PathFollower moves an entity along a Curve, looping once every Period seconds. The entity is turned so that its
// local +Z axis points along the curve, with its +Y axis kept as close to world up as possible.
type PathFollower struct {
	graph  *Graph
	handle Handle

	Curve  *Curve
	Period float64 // Seconds per lap. Defaults to 30.

	elapsed float64
}

// NewPathFollower creates a PathFollower that moves the provided entity.
func NewPathFollower(graph *Graph, handle Handle, curve *Curve) *PathFollower {
	graph.entity(handle)
	return &PathFollower{graph: graph, handle: handle, Curve: curve, Period: 30}
}

// Handle returns the entity being moved.
func (pf *PathFollower) Handle() Handle {
	return pf.handle
}

// Progress returns how far along the curve the follower is, from 0 to 1.
func (pf *PathFollower) Progress() float64 {
	if pf.Period <= 0 {
		return 0
	}
	return math.Mod(pf.elapsed/pf.Period, 1)
}

// Update advances the follower by dt seconds and places its entity on the curve.
func (pf *PathFollower) Update(dt float64) error {

	if !pf.graph.Valid(pf.handle) {
		return fmt.Errorf("path follower: %w", ErrUnknownEntity)
	}

	pf.elapsed += dt
	t := pf.Progress()

	if err := pf.graph.SetPosition(pf.handle, pf.Curve.Point(t)); err != nil {
		return fmt.Errorf("path follower: %w", err)
	}

	forward := pf.Curve.Derivative(t)
	if forward.Len() < degenerateEpsilon {
		return nil
	}
	forward = forward.Normalize()

	right := WorldUp.Cross(forward)
	if right.Len() < degenerateEpsilon {
		return nil
	}
	right = right.Normalize()
	up := forward.Cross(right).Normalize()

	rotation := QuatFromMatrix(mgl64.Mat3FromCols(right, up, forward).Mat4())

	if err := pf.graph.SetRotation(pf.handle, rotation); err != nil {
		return fmt.Errorf("path follower: %w", err)
	}

	return nil

}
