package estimator

import (
	"fmt"
	"math"
)

// Gravity is the magnitude of the derived acceleration vector, in m/s².
const Gravity = 9.8

// UprightAngle is the angle of a perfectly upright camera, in degrees.
const UprightAngle = 90.0

// Result is one visual-vertical estimate. The angle is the single source of
// truth: the radian and acceleration fields are always derived from it by
// NewResult and cannot be set independently.
type Result struct {
	angle    float64
	angleRad float64
	accX     float64
	accY     float64
}

// NewResult derives the full result from an angle in degrees.
func NewResult(angle float64) Result {
	rad := angle * math.Pi / 180
	return Result{
		angle:    angle,
		angleRad: rad,
		accX:     Gravity * math.Cos(rad),
		accY:     Gravity * math.Sin(rad),
	}
}

// Upright returns the result for a vertical at 90°.
func Upright() Result { return NewResult(UprightAngle) }

// Angle returns the estimate in degrees.
func (r Result) Angle() float64 { return r.angle }

// AngleRad returns the estimate in radians.
func (r Result) AngleRad() float64 { return r.angleRad }

// AccX returns the horizontal gravity component in m/s².
func (r Result) AccX() float64 { return r.accX }

// AccY returns the vertical gravity component in m/s².
func (r Result) AccY() float64 { return r.accY }

func (r Result) String() string {
	return fmt.Sprintf("VV %.2f° (acc %.3f, %.3f m/s²)", r.angle, r.accX, r.accY)
}
