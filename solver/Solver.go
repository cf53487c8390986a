// Package solver wraps gonum optimization Methods so that they can be
// JSON serialized into configuration files and reused across
// successive minimization calls.
package solver

import (
	"encoding/json"
	"fmt"
	"reflect"

	"gonum.org/v1/gonum/optimize"
)

// Type describes different types of solvers that are available
type Type string

// Available solver types
const (
	LBFGS           Type = "LBFGS"
	GradientDescent Type = "GradientDescent"
)

// Objective is a scalar function of a parameter vector together with
// its gradient. Grad must fill grad with the gradient of the function
// at x.
type Objective struct {
	Func func(x []float64) float64
	Grad func(grad, x []float64)
}

// Solver wraps a gonum optimization Method so that it can be JSON
// marshalled and unmarshalled, and so that a single live solver value
// can be threaded through successive minimization calls.
type Solver struct {
	method optimize.Method
	Type
	Config
}

// newSolver returns a new solver with the given type and configuration.
func newSolver(t Type, c Config) (*Solver, error) {
	if !c.ValidType(t) {
		return nil, fmt.Errorf("newSolver: invalid solver type %v for "+
			"configuration %T", t, c)
	}
	solver := Solver{Type: t, Config: c}
	solver.method = solver.Config.Create()

	return &solver, nil
}

// Minimize minimizes the objective starting from init, for at most the
// configured major iteration count. The solver's Method value is
// retained between calls. Hitting the iteration budget is not an
// error: the best point found is returned.
func (s *Solver) Minimize(o Objective, init []float64) (*optimize.Result,
	error) {
	if o.Func == nil {
		return nil, fmt.Errorf("minimize: no objective function")
	}
	if len(init) == 0 {
		return nil, fmt.Errorf("minimize: empty initial parameter vector")
	}

	problem := optimize.Problem{Func: o.Func, Grad: o.Grad}

	result, err := optimize.Minimize(problem, init, s.Config.Settings(),
		s.method)
	if err != nil {
		if result == nil || result.X == nil {
			return nil, fmt.Errorf("minimize: %v", err)
		}
		// Line searches fail near flat optima; the best point found
		// so far is still usable.
	}

	return result, nil
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (s *Solver) UnmarshalJSON(data []byte) error {
	config, typeName, err := unmarshalConfig(
		data,
		"Type",
		"Config",
		map[string]reflect.Type{
			string(LBFGS):           reflect.TypeOf(LBFGSConfig{}),
			string(GradientDescent): reflect.TypeOf(GradientDescentConfig{}),
		})
	if err != nil {
		return err
	}

	s.Type = typeName
	s.Config = config
	s.method = s.Config.Create()

	return nil
}

// unmarshalConfig uses reflection to unmarshall a Config into its
// concrete type. Both the Config and its Type are returned.
func unmarshalConfig(data []byte, typeJsonField, valueJsonField string,
	customTypes map[string]reflect.Type) (Config, Type, error) {
	m := map[string]interface{}{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, "", err
	}

	typeName := m[typeJsonField].(string)
	var value Config
	if ty, found := customTypes[typeName]; found {
		value = reflect.New(ty).Interface().(Config)
	}

	valueBytes, err := json.Marshal(m[valueJsonField])
	if err != nil {
		return nil, "", err
	}

	if err = json.Unmarshal(valueBytes, &value); err != nil {
		return nil, "", err
	}

	return value, Type(typeName), nil
}

// Config implements a gonum optimization Method configuration and can
// be used to create the Methods it describes.
type Config interface {
	Create() optimize.Method

	// Settings returns the optimization settings the Config describes
	Settings() *optimize.Settings

	// ValidType returns whether a specific Solver type can be created
	// with the Config
	ValidType(Type) bool
}
