package main

import (
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/gopilco/environment"
	"github.com/samuelfneumann/gopilco/environment/pendulum"
	"github.com/samuelfneumann/gopilco/experiment"
	"github.com/samuelfneumann/gopilco/experiment/tracker"
	"github.com/samuelfneumann/gopilco/model/gp"
	"github.com/samuelfneumann/gopilco/pilco"
	"github.com/samuelfneumann/gopilco/policy/rbf"
	"github.com/samuelfneumann/gopilco/reward"
)

func main() {
	var seed uint64 = 192382

	const (
		episodeSteps  = 40
		horizon       = 30
		numBasis      = 20
		maxIterations = 50
		numRestarts   = 3
		iterations    = 5
	)

	// Start each episode with the pendulum hanging nearly straight
	// down and motionless
	starter := environment.NewUniformStarter([]r1.Interval{
		{Min: math.Pi - 0.05, Max: math.Pi},
		{Min: -0.05, Max: 0.05},
	}, seed)
	env, _, err := pendulum.New(starter, episodeSteps)
	if err != nil {
		log.Fatal(err)
	}

	// Seed the dynamics model with a random-torque episode
	session := experiment.NewSession(env, seed)
	if err := session.CollectRandom(episodeSteps); err != nil {
		log.Fatal(err)
	}
	x, y, err := session.Data()
	if err != nil {
		log.Fatal(err)
	}

	dynamics, err := gp.NewMGPR(x, y)
	if err != nil {
		log.Fatal(err)
	}

	controller, err := rbf.New(pendulum.ObservationDims,
		pendulum.ActionDims, numBasis, pendulum.TorqueBound, seed)
	if err != nil {
		log.Fatal(err)
	}

	// Reward saturates at the upright, motionless state
	upright, err := reward.NewExponential(pendulum.ObservationDims,
		[]float64{0, 0})
	if err != nil {
		log.Fatal(err)
	}

	mInit := mat.NewDense(1, 2, []float64{math.Pi, 0})
	sInit := mat.NewDense(2, 2, []float64{0.01, 0, 0, 0.01})

	agent, err := pilco.New(dynamics, controller, upright, mInit, sInit,
		horizon, seed)
	if err != nil {
		log.Fatal(err)
	}

	track, err := tracker.NewSQLite("./pilco.db")
	if err != nil {
		log.Fatal(err)
	}
	defer track.Close()
	agent.Track(track)

	if err := session.SetAgent(agent); err != nil {
		log.Fatal(err)
	}

	for i := 0; i < iterations; i++ {
		fmt.Printf("=== iteration %v ===\n", i)
		if err := session.Iterate(maxIterations, numRestarts,
			episodeSteps); err != nil {
			log.Fatal(err)
		}

		ret, err := agent.Return()
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("expected cumulative reward: %.4f\n", ret)
	}
}
