// Package experiment runs the outer model-based policy-search loop:
// collect transitions from an environment, refit the dynamics model,
// optimize the policy, repeat.
package experiment

import (
	"fmt"
	"log"

	"github.com/dustin/go-humanize"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/samuelfneumann/gopilco/environment"
	"github.com/samuelfneumann/gopilco/pilco"
	"github.com/samuelfneumann/gopilco/timestep"
)

// Session accumulates environmental transitions and drives the
// learning loop of a PILCO agent on an environment. The dataset grows
// across collection passes; the dynamics model is refit on the full
// dataset each iteration.
type Session struct {
	env   environment.Environment
	agent *pilco.PILCO

	transitions []timestep.Transition
	rng         *rand.Rand
}

// NewSession returns a new Session on env. An agent is attached with
// SetAgent once seed data has been collected for its dynamics model.
func NewSession(env environment.Environment, seed uint64) *Session {
	return &Session{
		env: env,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// SetAgent attaches the agent whose policy and model the session
// trains
func (s *Session) SetAgent(agent *pilco.PILCO) error {
	if s.env.ObservationDims() != agent.Policy().StateDims() {
		return fmt.Errorf("setAgent: environment has %v state features, "+
			"agent expects %v", s.env.ObservationDims(),
			agent.Policy().StateDims())
	}
	if s.env.ActionDims() != agent.Policy().ActionDims() {
		return fmt.Errorf("setAgent: environment has %v action dimensions, "+
			"agent expects %v", s.env.ActionDims(),
			agent.Policy().ActionDims())
	}

	s.agent = agent
	return nil
}

// CollectRandom runs one episode of at most steps steps under a
// uniformly random policy and appends the observed transitions to the
// dataset. Used to seed the dynamics model before the first
// optimization pass.
func (s *Session) CollectRandom(steps int) error {
	uniform := distuv.Uniform{
		Min: -s.env.MaxAction(),
		Max: s.env.MaxAction(),
		Src: s.rng,
	}

	return s.collect(steps, func(mat.Vector) *mat.VecDense {
		action := mat.NewVecDense(s.env.ActionDims(), nil)
		for i := 0; i < action.Len(); i++ {
			action.SetVec(i, uniform.Rand())
		}
		return action
	})
}

// Collect runs one episode of at most steps steps under the agent's
// current policy (mean action at each concrete state) and appends the
// observed transitions to the dataset
func (s *Session) Collect(steps int) error {
	if s.agent == nil {
		return fmt.Errorf("collect: no agent attached")
	}

	d := s.env.ObservationDims()
	zeroCov := mat.NewDense(d, d, nil)

	return s.collect(steps, func(obs mat.Vector) *mat.VecDense {
		m := mat.NewDense(1, d, nil)
		for i := 0; i < d; i++ {
			m.Set(0, i, obs.AtVec(i))
		}

		actionMean, _, _, err := s.agent.Policy().ComputeAction(m, zeroCov)
		if err != nil {
			log.Printf("collect: policy failed, falling back to zero "+
				"action: %v", err)
			return mat.NewVecDense(s.env.ActionDims(), nil)
		}

		action := mat.NewVecDense(s.env.ActionDims(), nil)
		for i := 0; i < action.Len(); i++ {
			action.SetVec(i, actionMean.At(0, i))
		}
		return action
	})
}

// collect runs a single episode, choosing actions with act
func (s *Session) collect(steps int,
	act func(obs mat.Vector) *mat.VecDense) error {
	if steps <= 0 {
		return fmt.Errorf("collect: steps must be positive, got %v", steps)
	}

	step := s.env.Reset()
	for i := 0; i < steps && !step.Last(); i++ {
		action := act(step.Observation)

		next, _, err := s.env.Step(action)
		if err != nil {
			return fmt.Errorf("collect: %v", err)
		}

		s.transitions = append(s.transitions, timestep.Transition{
			State:     step.Observation,
			Action:    action,
			NextState: next.Observation,
		})
		step = next
	}

	log.Printf("dataset holds %v transitions",
		humanize.Comma(int64(len(s.transitions))))
	return nil
}

// Transitions returns the number of collected transitions
func (s *Session) Transitions() int { return len(s.transitions) }

// Data assembles the dataset into dynamics-model training matrices:
// inputs are (state, action) concatenations, targets are state deltas
func (s *Session) Data() (*mat.Dense, *mat.Dense, error) {
	if len(s.transitions) == 0 {
		return nil, nil, fmt.Errorf("data: no transitions collected")
	}

	d := s.env.ObservationDims()
	f := s.env.ActionDims()
	n := len(s.transitions)

	x := mat.NewDense(n, d+f, nil)
	y := mat.NewDense(n, d, nil)
	for i, tr := range s.transitions {
		for j := 0; j < d; j++ {
			x.Set(i, j, tr.State.AtVec(j))
			y.Set(i, j, tr.NextState.AtVec(j)-tr.State.AtVec(j))
		}
		for j := 0; j < f; j++ {
			x.Set(i, d+j, tr.Action.AtVec(j))
		}
	}
	return x, y, nil
}

// Iterate runs one learning iteration: refit the dynamics model on the
// full dataset, optimize the policy with maxIterations major
// iterations, run numRestarts restart trials, then collect a fresh
// episode of at most steps steps under the improved policy
func (s *Session) Iterate(maxIterations, numRestarts, steps int) error {
	if s.agent == nil {
		return fmt.Errorf("iterate: no agent attached")
	}

	x, y, err := s.Data()
	if err != nil {
		return fmt.Errorf("iterate: %v", err)
	}
	if err := s.agent.Model().SetData(x, y); err != nil {
		return fmt.Errorf("iterate: %v", err)
	}

	if err := s.agent.Optimize(maxIterations); err != nil {
		return fmt.Errorf("iterate: %v", err)
	}
	if numRestarts > 0 {
		if err := s.agent.ImproveWithRestarts(numRestarts); err != nil {
			return fmt.Errorf("iterate: %v", err)
		}
	}

	if err := s.Collect(steps); err != nil {
		return fmt.Errorf("iterate: %v", err)
	}
	return nil
}
