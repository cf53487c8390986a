// Package pendulum implements the pendulum swing-up environment
package pendulum

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/gopilco/environment"
	"github.com/samuelfneumann/gopilco/timestep"
	"github.com/samuelfneumann/gopilco/utils/floatutils"
)

// default physical constants
const (
	AngleBound  float64 = math.Pi // +/- Angle bounds
	SpeedBound  float64 = 8.0     // +/- Speed bounds
	TorqueBound float64 = 2.0     // +/- Torque bounds

	dt              float64 = 0.05
	Gravity         float64 = 9.8
	Mass            float64 = 1.0
	Length          float64 = 1.0
	ActionDims      int     = 1
	ObservationDims int     = 2
)

// Pendulum implements the classic pendulum swing-up environment. A
// pendulum is attached to a fixed base, and the swinging torque is
// underpowered: the pendulum must be rocked back and forth, using
// momentum to gradually climb until it points straight up.
//
// State features are the angle of the pendulum from the positive
// y-axis, normalized to [-π, π], and the angular velocity, clipped to
// [-SpeedBound, SpeedBound]. Actions are continuous, 1-dimensional
// torques clipped to [-TorqueBound, TorqueBound].
//
// Pendulum implements the environment.Environment interface
type Pendulum struct {
	environment.Starter
	dt           float64
	gravity      float64
	mass         float64
	length       float64
	angleBounds  r1.Interval
	speedBounds  r1.Interval
	torqueBounds r1.Interval
	lastStep     timestep.TimeStep
	maxSteps     int
}

// New creates and returns a new Pendulum environment whose episodes
// last at most maxSteps steps
func New(s environment.Starter, maxSteps int) (*Pendulum, timestep.TimeStep,
	error) {
	if maxSteps <= 0 {
		return nil, timestep.TimeStep{}, fmt.Errorf("new: maxSteps must be "+
			"positive, got %v", maxSteps)
	}

	angleBounds := r1.Interval{Min: -AngleBound, Max: AngleBound}
	speedBounds := r1.Interval{Min: -SpeedBound, Max: SpeedBound}
	torqueBounds := r1.Interval{Min: -TorqueBound, Max: TorqueBound}

	state := s.Start()
	if err := validateState(state, angleBounds, speedBounds); err != nil {
		return nil, timestep.TimeStep{}, fmt.Errorf("new: %v", err)
	}

	firstStep := timestep.New(timestep.First, 0.0, state, 0)

	pendulum := Pendulum{s, dt, Gravity, Mass, Length, angleBounds,
		speedBounds, torqueBounds, firstStep, maxSteps}

	return &pendulum, firstStep, nil
}

// Reset resets the environment and returns a starting state drawn from
// the Starter
func (p *Pendulum) Reset() timestep.TimeStep {
	state := p.Start()
	if err := validateState(state, p.angleBounds, p.speedBounds); err != nil {
		panic(fmt.Sprintf("reset: %v", err))
	}
	startStep := timestep.New(timestep.First, 0, state, 0)
	p.lastStep = startStep

	return startStep
}

// Step applies a torque to the pendulum's fixed base and advances the
// simulation by one timestep
func (p *Pendulum) Step(action mat.Vector) (timestep.TimeStep, bool, error) {
	if action.Len() != ActionDims {
		return timestep.TimeStep{}, true, fmt.Errorf("step: actions must be "+
			"1-dimensional, got %v-dimensional", action.Len())
	}

	newState := p.nextState(action.AtVec(0))

	reward := p.GetReward(p.lastStep.Observation, action, newState)
	number := p.lastStep.Number + 1

	stepType := timestep.Mid
	if number >= p.maxSteps {
		stepType = timestep.Last
	}

	nextStep := timestep.New(stepType, reward, newState, number)
	p.lastStep = nextStep

	return nextStep, nextStep.Last(), nil
}

// GetReward returns the negative squared deviation of the pendulum
// from pointing straight up, with small penalties on speed and torque
func (p *Pendulum) GetReward(state, action, nextState mat.Vector) float64 {
	th := nextState.AtVec(0)
	thdot := nextState.AtVec(1)
	torque := floatutils.ClipInterval(action.AtVec(0), p.torqueBounds)

	return -(th*th + 0.1*thdot*thdot + 0.001*torque*torque)
}

// AtGoal returns whether the pendulum is balancing upright
func (p *Pendulum) AtGoal(state mat.Vector) bool {
	return math.Abs(state.AtVec(0)) < math.Pi/8
}

// ObservationDims returns the number of state features
func (p *Pendulum) ObservationDims() int { return ObservationDims }

// ActionDims returns the number of action dimensions
func (p *Pendulum) ActionDims() int { return ActionDims }

// MaxAction returns the maximum torque magnitude
func (p *Pendulum) MaxAction() float64 { return TorqueBound }

// nextState computes the next state of the environment given an amount
// of torque to apply to the fixed base of the pendulum. The torque is
// first clipped to the appropriate torque bounds.
func (p *Pendulum) nextState(torque float64) *mat.VecDense {
	obs := p.lastStep.Observation
	th, thdot := obs.AtVec(0), obs.AtVec(1)

	torque = floatutils.ClipInterval(torque, p.torqueBounds)

	newthdot := thdot + (-3*p.gravity/(2*p.length)*math.Sin(th+math.Pi)+
		3.0/(p.mass*math.Pow(p.length, 2))*torque)*p.dt

	newth := th + (newthdot * p.dt)

	newthdot = floatutils.ClipInterval(newthdot, p.speedBounds)
	newth = normalizeAngle(newth, p.angleBounds)

	return mat.NewVecDense(2, []float64{newth, newthdot})
}

func (p *Pendulum) String() string {
	str := "Pendulum  |  theta: %v  |  theta dot: %v"
	theta := p.lastStep.Observation.AtVec(0)
	thetadot := p.lastStep.Observation.AtVec(1)

	return fmt.Sprintf(str, theta, thetadot)
}

// normalizeAngle normalizes the pendulum angle to the appropriate limits
func normalizeAngle(th float64, angleBounds r1.Interval) float64 {
	if angleBounds.Max != -angleBounds.Min {
		panic("angle bounds should be centered around 0")
	}

	if th > angleBounds.Max {
		divisor := int(th / angleBounds.Max)
		return -math.Pi + th - (angleBounds.Max * float64(divisor))
	} else if th < angleBounds.Min {
		divisor := int(th / angleBounds.Min)
		return math.Pi + th - (angleBounds.Min * float64(divisor))
	}
	return th
}

// validateState validates the state to ensure that the angle and angular
// velocity are within the environmental limits
func validateState(obs mat.Vector, angleBounds, speedBounds r1.Interval) error {
	if obs.Len() != ObservationDims {
		return fmt.Errorf("validateState: expected %v state features, got %v",
			ObservationDims, obs.Len())
	}

	th, thdot := obs.AtVec(0), obs.AtVec(1)
	if th < angleBounds.Min || th > angleBounds.Max {
		return fmt.Errorf("validateState: angle %v out of bounds %v", th,
			angleBounds)
	}
	if thdot < speedBounds.Min || thdot > speedBounds.Max {
		return fmt.Errorf("validateState: speed %v out of bounds %v", thdot,
			speedBounds)
	}
	return nil
}
