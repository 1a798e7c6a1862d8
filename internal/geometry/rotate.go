package geometry

// RotationStep is the increment applied by a single rotate action, in degrees.
const RotationStep = 45

// NormalizeRotation wraps any integer angle into [0, 360).
func NormalizeRotation(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg
}

// Rotate advances an angle by one step.
func Rotate(current int) int {
	return NormalizeRotation(current + RotationStep)
}
