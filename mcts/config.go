package mcts

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Config holds the engine's tunables, matching the teacher's Config/IsValid
// shape (mcts/tree.go, dualnet/config.go) generalized to the spec's fields.
type Config struct {
	// NWorkers is the number of concurrent workers. 1 selects synchronous
	// mode (spec.md §5); the engine still takes its lock uncontended, per
	// SPEC_FULL.md §5's synchronous-mode-locking decision.
	NWorkers int

	// FillBatches pads inference batches to NWorkers by duplicating the
	// first request; padded results are discarded.
	FillBatches bool

	// CPUCT is the PUCT exploration coefficient.
	CPUCT float32

	// NoiseEps mixes Dirichlet root noise into the prior; 0 disables it.
	NoiseEps float32

	// NoiseAlpha is the Dirichlet concentration parameter.
	NoiseAlpha float64
}

// DefaultConfig returns the spec's defaults (spec.md §6).
func DefaultConfig() Config {
	return Config{
		NWorkers:   1,
		CPUCT:      1.0,
		NoiseEps:   0.0,
		NoiseAlpha: 1.0,
	}
}

// IsValid reports every configuration problem at once via go-multierror,
// the same aggregation style the teacher uses for multi-field validation.
func (c Config) IsValid() error {
	var merr *multierror.Error
	if c.NWorkers < 1 {
		merr = multierror.Append(merr, errors.New("nworkers must be >= 1"))
	}
	if c.CPUCT <= 0 {
		merr = multierror.Append(merr, errors.New("cpuct must be positive"))
	}
	if c.NoiseEps < 0 || c.NoiseEps > 1 {
		merr = multierror.Append(merr, errors.New("noise_eps must lie in [0, 1]"))
	}
	if c.NoiseAlpha <= 0 {
		merr = multierror.Append(merr, errors.New("noise_alpha must be positive"))
	}
	return merr.ErrorOrNil()
}
