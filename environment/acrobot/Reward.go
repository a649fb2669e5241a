package acrobot

import "math"

// RewardFunc computes the reward of arriving in state s after taking
// action a
type RewardFunc func(t *BalanceTask, s State, a Action) float64

// ShapedReward heavily penalizes ending the episode and pays a bonus
// when every bucket is at its centre. Otherwise it rewards angle
// buckets near their centre and charges for velocity buckets away from
// theirs and for torques away from the middle of the ladder. The
// action cost is zero for the middle action only if the ladder has an
// odd number of actions.
func ShapedReward(t *BalanceTask, s State, a Action) float64 {
	if t.Finished(s) {
		return -2000
	}

	pend := float64(t.PendulumDigitization) / 2
	arm := float64(t.ArmDigitization) / 2

	near := func(bucket int, centre float64) bool {
		return math.Abs(float64(bucket)-centre) < 1
	}
	if near(s.PendulumAngle, pend) && near(s.ArmAngle, arm) &&
		near(s.PendulumVelocity, pend) && near(s.ArmVelocity, arm) {
		return 500
	}

	sq := func(centre float64, bucket int) float64 {
		d := centre - float64(bucket)
		return d * d
	}
	position := 10 - (0.2*sq(pend, s.PendulumAngle) + 0.1*sq(arm, s.ArmAngle))
	velocity := 0.001*sq(pend, s.PendulumVelocity) +
		0.002*sq(arm, s.ArmVelocity)
	action := 0.01 * math.Abs(float64(t.ActionSize-1)/2-float64(a.Index))

	return position - velocity - action
}

// QuadraticReward pays a downward parabola in the pendulum angle
// bucket: 1 at the central bucket, 0 a quarter of the buckets away on
// either side, and negative beyond. Ending the episode costs 10.
func QuadraticReward(t *BalanceTask, s State, _ Action) float64 {
	if t.Finished(s) {
		return -10
	}

	n := t.PendulumDigitization
	best := (n - 1) / 2
	lo := best - n/4
	hi := best + n/4

	denom := float64(best*best - lo*hi)
	if denom == 0 {
		if s.PendulumAngle == best {
			return 1
		}
		return 0
	}

	a := 1 / denom
	b := a * float64(lo+hi)
	c := -a * float64(lo*hi)
	x := float64(s.PendulumAngle)
	return -a*x*x + b*x + c
}

// ZeroReward always returns 0
func ZeroReward(*BalanceTask, State, Action) float64 {
	return 0
}
