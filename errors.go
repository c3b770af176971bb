package guraffic

import "errors"

var (
	// ErrNonFinite is returned when a position, scale, or rotation component is NaN or infinite.
	ErrNonFinite = errors.New("non-finite transform component")
	// ErrDegenerateScale is returned when a scale component is zero (or below Graph.MinScale) and the graph's
	// ScalePolicy is ScaleReject.
	ErrDegenerateScale = errors.New("degenerate scale")
	// ErrDegenerateRotation is returned for a zero-length quaternion or rotation axis.
	ErrDegenerateRotation = errors.New("degenerate rotation")

	ErrUnknownShader   = errors.New("unknown shader")
	ErrUnknownEntity   = errors.New("unknown entity")
	ErrUnknownMesh     = errors.New("unknown mesh")
	ErrUnknownEasing   = errors.New("unknown easing")
	ErrUnknownProperty = errors.New("unknown animated property")
	ErrNoActiveCamera  = errors.New("scene has no active camera")
	ErrMalformedFile   = errors.New("malformed file")
)
