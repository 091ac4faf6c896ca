// Package irrigation turns a weather observation and field parameters into an
// irrigation recommendation: reference evapotranspiration, crop growth stage
// and coefficient, soil water balance and the rule-based verdict.
//
// Every function is a pure computation over its inputs. An Engine only reads
// its reference lookup, so a single Engine can serve any number of goroutines.
package irrigation

import "github.com/i474232898/irrigation-advisor/internal/refdata"

// Lookup provides crop and soil reference profiles. *refdata.Catalog
// satisfies it; tests can supply synthetic profiles.
type Lookup interface {
	Crop(id string) (refdata.CropProfile, bool)
	Soil(id string) (refdata.SoilProfile, bool)
}

// Resolution records whether a lookup hit the reference data or fell back to
// a default.
type Resolution string

const (
	Resolved             Resolution = "resolved"
	FallbackUnknownCrop  Resolution = "unknown-crop"
	FallbackUnknownStage Resolution = "unknown-stage"
	FallbackUnknownSoil  Resolution = "unknown-soil"
)

const (
	fallbackStage = refdata.StageMid
	fallbackKc    = 1.0
	fallbackSoil  = "loamy"
)

// builtinLoamy backs the loamy fallback when the lookup does not carry it.
var builtinLoamy = refdata.SoilProfile{
	ID:               fallbackSoil,
	Name:             "Loamy",
	FieldCapacity:    0.25,
	WiltingPoint:     0.10,
	BulkDensity:      1.4,
	InfiltrationRate: 15,
}

// Engine evaluates irrigation recommendations against a reference lookup.
type Engine struct {
	lookup Lookup
}

// NewEngine creates an Engine backed by lookup.
func NewEngine(lookup Lookup) *Engine {
	return &Engine{lookup: lookup}
}
