package settings

import (
	"fmt"

	"github.com/kailas-cloud/hybridsync/internal/domain"
)

// Defaults for the runtime query settings.
const (
	DefaultNumberOfHybridItems = 5
	DefaultHybridThreshold     = 0.5
)

// Settings is one generation of the query-time knobs. It is a value type:
// a request reads one Settings and never observes a mix of two generations.
type Settings struct {
	NumberOfHybridItems int     `json:"number_of_hybrid_items" yaml:"number_of_hybrid_items"`
	HybridThreshold     float64 `json:"hybrid_threshold" yaml:"hybrid_threshold"`
}

// Default returns the settings used when nothing is configured.
func Default() Settings {
	return Settings{
		NumberOfHybridItems: DefaultNumberOfHybridItems,
		HybridThreshold:     DefaultHybridThreshold,
	}
}

// Validate checks k > 0 and threshold in [0, 1].
func (s Settings) Validate() error {
	if s.NumberOfHybridItems <= 0 {
		return fmt.Errorf("%w: number_of_hybrid_items must be positive, got %d",
			domain.ErrInvalidSettings, s.NumberOfHybridItems)
	}
	if s.HybridThreshold < 0 || s.HybridThreshold > 1 {
		return fmt.Errorf("%w: hybrid_threshold must be in [0, 1], got %g",
			domain.ErrInvalidSettings, s.HybridThreshold)
	}
	return nil
}

// K returns the result count.
func (s Settings) K() int { return s.NumberOfHybridItems }

// Threshold returns the minimum fused score.
func (s Settings) Threshold() float64 { return s.HybridThreshold }
