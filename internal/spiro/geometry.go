package spiro

// Advance computes the rolling relation between a rotating gear and the fixed
// gear it rolls around.
//
// prevAngle is the rotating gear's accumulated roll angle. The result is the
// gear's total spin (own rotation plus the rolling contribution) and the offset
// of its centre from the fixed gear's centre.
//
// fixedRadius must be non-zero; callers guard it.
func Advance(prevAngle, fixedRadius, rotatingRadius float64) (spin float64, offset Vec2) {
	// Arc length rolled along the fixed gear's circumference
	distanceTraveled := prevAngle * rotatingRadius

	// Angle swept around the fixed gear's centre
	angleLargeCircle := distanceTraveled / fixedRadius

	spin = prevAngle + angleLargeCircle
	offset = FromAngle(angleLargeCircle).Mul(fixedRadius - rotatingRadius)
	return spin, offset
}
