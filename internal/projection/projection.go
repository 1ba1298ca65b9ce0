// Package projection defines the data structures related to a calculated
// scenario and includes functions for computing every scenario of a
// configuration.
package projection

import (
	"fmt"

	"github.com/iwvelando/fincalc/internal/config"
	"github.com/iwvelando/fincalc/internal/optimizer"
	"github.com/iwvelando/fincalc/pkg/optimization"
	"github.com/iwvelando/fincalc/pkg/pricing"
	"go.uber.org/zap"
)

// Projection holds all information related to a specific scenario.
type Projection struct {
	Name        string                     `json:"name"`
	Mode        pricing.Mode               `json:"mode"`
	Inputs      pricing.Inputs             `json:"inputs"`
	Result      pricing.Result             `json:"result"`
	Sensitivity []pricing.SensitivityPoint `json:"sensitivity,omitempty"`
	GoalSeek    []optimization.Summary     `json:"goalSeek,omitempty"`
}

// GetProjections calculates every active scenario. A scenario whose inputs
// fail the engine's preconditions is still returned, with an invalid Result;
// only configuration mistakes such as an unknown mode or template are errors.
func GetProjections(logger *zap.Logger, conf config.Configuration) ([]Projection, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var results []Projection
	for _, scenario := range conf.Scenarios {
		if !scenario.Active {
			logger.Debug(fmt.Sprintf("skipping scenario %s because it is inactive", scenario.Name),
				zap.String("op", "projection.GetProjections"),
			)
			continue
		}

		mode, err := scenario.CalculationMode()
		if err != nil {
			return results, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		inputs, err := scenario.ResolveInputs(conf.Common.Inputs)
		if err != nil {
			return results, err
		}

		result := pricing.Calculate(mode, inputs)
		if !result.Valid {
			logger.Warn("scenario calculation failed",
				zap.String("op", "projection.GetProjections"),
				zap.String("scenario", scenario.Name),
				zap.String("mode", string(mode)),
				zap.String("error", result.Error),
			)
		}

		results = append(results, Projection{
			Name:        scenario.Name,
			Mode:        mode,
			Inputs:      inputs,
			Result:      result,
			Sensitivity: pricing.Sensitivity(inputs, result, conf.Sensitivity),
		})
	}

	runner, err := optimizer.NewRunner(logger, &conf)
	if err != nil {
		return results, err
	}
	seeks, err := runner.Run()
	if err != nil {
		return results, fmt.Errorf("goal seek failed: %w", err)
	}
	Apply(results, seeks)

	return results, nil
}

// Apply attaches goal seek summaries to the projections with matching names.
func Apply(projections []Projection, seeks *optimizer.Result) {
	if seeks == nil || seeks.Empty() {
		return
	}
	for i := range projections {
		if summaries, ok := seeks.Summaries[projections[i].Name]; ok {
			projections[i].GoalSeek = append(projections[i].GoalSeek, summaries...)
		}
	}
}

// Find returns the projection with the given name, or nil.
func Find(projections []Projection, name string) *Projection {
	for i := range projections {
		if projections[i].Name == name {
			return &projections[i]
		}
	}
	return nil
}
