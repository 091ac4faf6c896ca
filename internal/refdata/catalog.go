package refdata

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

//go:embed catalog.json
var embeddedCatalog []byte

// ErrInvalidCatalog is returned when reference data violates its invariants.
var ErrInvalidCatalog = errors.New("invalid reference catalog")

// Stage is one of the ordered crop development phases.
type Stage string

const (
	StageInitial     Stage = "initial"
	StageDevelopment Stage = "development"
	StageMid         Stage = "mid"
	StageLate        Stage = "late"
	StageHarvest     Stage = "harvest"
)

// StageOrder lists the stages in development order. Every crop carries each
// of them exactly once, in this order.
var StageOrder = []Stage{StageInitial, StageDevelopment, StageMid, StageLate, StageHarvest}

// StageProfile holds the crop coefficient and duration of one growth stage.
type StageProfile struct {
	Name     Stage   `json:"name"`
	Kc       float64 `json:"kc"`
	Duration int     `json:"duration"`
}

type CriticalPeriod struct {
	Stage       Stage  `json:"stage"`
	Description string `json:"description"`
	Months      string `json:"months"`
}

type WaterRequirements struct {
	TotalSeasonal   float64          `json:"totalSeasonal"`
	Unit            string           `json:"unit"`
	CriticalPeriods []CriticalPeriod `json:"criticalPeriods,omitempty"`
}

// Season is a planting/harvest window. Wheat has separate winter and spring seasons.
type Season struct {
	Name     string `json:"name"`
	Planting string `json:"planting"`
	Harvest  string `json:"harvest"`
}

type SoilAdjustment struct {
	WaterRetention      float64 `json:"waterRetention"`
	Drainage            string  `json:"drainage"`
	IrrigationFrequency float64 `json:"irrigationFrequency"`
}

type IrrigationSchedule struct {
	Method    string `json:"method"`
	Frequency string `json:"frequency"`
	Count     int    `json:"count"`
}

type YieldFactors struct {
	AverageYield      float64 `json:"averageYield"`
	Unit              string  `json:"unit"`
	WaterProductivity float64 `json:"waterProductivity"`
}

// CropProfile is the static description of a crop. Stages are ordered.
type CropProfile struct {
	ID                 string                    `json:"type"`
	Name               string                    `json:"name"`
	ScientificName     string                    `json:"scientificName"`
	Description        string                    `json:"description"`
	Stages             []StageProfile            `json:"stages"`
	WaterRequirements  *WaterRequirements        `json:"waterRequirements,omitempty"`
	GrowingSeason      []Season                  `json:"growingSeason,omitempty"`
	SoilAdjustments    map[string]SoilAdjustment `json:"soilAdjustments,omitempty"`
	IrrigationSchedule *IrrigationSchedule       `json:"irrigationSchedule,omitempty"`
	YieldFactors       *YieldFactors             `json:"yieldFactors,omitempty"`
}

// Stage returns the profile of the named stage.
func (c CropProfile) Stage(name Stage) (StageProfile, bool) {
	for _, s := range c.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return StageProfile{}, false
}

// TotalDuration is the sum of all stage durations in days.
func (c CropProfile) TotalDuration() int {
	total := 0
	for _, s := range c.Stages {
		total += s.Duration
	}
	return total
}

// SoilProfile holds soil hydraulic properties. Water contents are volumetric fractions.
type SoilProfile struct {
	ID               string            `json:"type"`
	Name             string            `json:"name"`
	Description      string            `json:"description"`
	FieldCapacity    float64           `json:"fieldCapacity"`
	WiltingPoint     float64           `json:"wiltingPoint"`
	BulkDensity      float64           `json:"bulkDensity"`
	InfiltrationRate float64           `json:"infiltrationRate"`
	Suitability      map[string]string `json:"suitability,omitempty"`
}

// AvailableWaterCapacity is field capacity minus wilting point.
func (s SoilProfile) AvailableWaterCapacity() float64 {
	return s.FieldCapacity - s.WiltingPoint
}

type TempRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type Climate struct {
	Type                  string    `json:"type"`
	AnnualPrecipitationMM float64   `json:"annualPrecipitationMm"`
	SummerTempC           TempRange `json:"summerTempC"`
	WinterTempC           TempRange `json:"winterTempC"`
	GrowingSeasonDays     int       `json:"growingSeasonDays"`
	Regions               []string  `json:"regions"`
}

type Guidelines struct {
	WaterSources       []string `json:"waterSources"`
	RecommendedMethods []string `json:"recommendedMethods"`
	Notes              []string `json:"notes"`
}

type catalogFile struct {
	Version    string                 `json:"version"`
	Updated    string                 `json:"lastUpdated"`
	Region     string                 `json:"region"`
	Crops      map[string]CropProfile `json:"crops"`
	Soils      map[string]SoilProfile `json:"soilTypes"`
	Climate    *Climate               `json:"uzbekistanClimate"`
	Guidelines struct {
		Uzbekistan *Guidelines `json:"uzbekistan"`
	} `json:"irrigationGuidelines"`
}

// Catalog is the read-only crop and soil reference table. It is safe for
// concurrent use once loaded.
type Catalog struct {
	version    string
	updated    string
	region     string
	crops      map[string]CropProfile
	soils      map[string]SoilProfile
	climate    *Climate
	guidelines *Guidelines
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(embeddedCatalog)
}

// Load reads a catalog from path, or the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(b)
}

// Parse decodes and validates a JSON catalog.
func Parse(b []byte) (*Catalog, error) {
	var f catalogFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	c := &Catalog{
		version:    f.Version,
		updated:    f.Updated,
		region:     f.Region,
		crops:      make(map[string]CropProfile, len(f.Crops)),
		soils:      make(map[string]SoilProfile, len(f.Soils)),
		climate:    f.Climate,
		guidelines: f.Guidelines.Uzbekistan,
	}
	for id, crop := range f.Crops {
		crop.ID = normalize(id)
		if err := validateCrop(crop); err != nil {
			return nil, err
		}
		c.crops[crop.ID] = crop
	}
	for id, soil := range f.Soils {
		soil.ID = normalize(id)
		if err := validateSoil(soil); err != nil {
			return nil, err
		}
		c.soils[soil.ID] = soil
	}
	return c, nil
}

// New builds a catalog from in-memory profiles, applying the same validation as Parse.
func New(crops []CropProfile, soils []SoilProfile) (*Catalog, error) {
	c := &Catalog{
		crops: make(map[string]CropProfile, len(crops)),
		soils: make(map[string]SoilProfile, len(soils)),
	}
	for _, crop := range crops {
		crop.ID = normalize(crop.ID)
		if err := validateCrop(crop); err != nil {
			return nil, err
		}
		c.crops[crop.ID] = crop
	}
	for _, soil := range soils {
		soil.ID = normalize(soil.ID)
		if err := validateSoil(soil); err != nil {
			return nil, err
		}
		c.soils[soil.ID] = soil
	}
	return c, nil
}

func validateCrop(crop CropProfile) error {
	if len(crop.Stages) != len(StageOrder) {
		return fmt.Errorf("%w: crop %q has %d stages, want %d", ErrInvalidCatalog, crop.ID, len(crop.Stages), len(StageOrder))
	}
	for i, s := range crop.Stages {
		if s.Name != StageOrder[i] {
			return fmt.Errorf("%w: crop %q stage %d is %q, want %q", ErrInvalidCatalog, crop.ID, i+1, s.Name, StageOrder[i])
		}
		if s.Duration <= 0 {
			return fmt.Errorf("%w: crop %q stage %q has non-positive duration %d", ErrInvalidCatalog, crop.ID, s.Name, s.Duration)
		}
		if s.Kc < 0 {
			return fmt.Errorf("%w: crop %q stage %q has negative kc", ErrInvalidCatalog, crop.ID, s.Name)
		}
	}
	return nil
}

func validateSoil(soil SoilProfile) error {
	if soil.WiltingPoint < 0 || soil.FieldCapacity > 1 {
		return fmt.Errorf("%w: soil %q water contents must be within 0-1", ErrInvalidCatalog, soil.ID)
	}
	if soil.AvailableWaterCapacity() <= 0 {
		return fmt.Errorf("%w: soil %q field capacity %.2f must exceed wilting point %.2f",
			ErrInvalidCatalog, soil.ID, soil.FieldCapacity, soil.WiltingPoint)
	}
	return nil
}

func normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Crop looks up a crop profile by identifier (case-insensitive).
func (c *Catalog) Crop(id string) (CropProfile, bool) {
	crop, ok := c.crops[normalize(id)]
	return crop, ok
}

// Soil looks up a soil profile by identifier (case-insensitive).
func (c *Catalog) Soil(id string) (SoilProfile, bool) {
	soil, ok := c.soils[normalize(id)]
	return soil, ok
}

// Crops returns all crop profiles sorted by identifier.
func (c *Catalog) Crops() []CropProfile {
	out := make([]CropProfile, 0, len(c.crops))
	for _, crop := range c.crops {
		out = append(out, crop)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Soils returns all soil profiles sorted by identifier.
func (c *Catalog) Soils() []SoilProfile {
	out := make([]SoilProfile, 0, len(c.soils))
	for _, soil := range c.soils {
		out = append(out, soil)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *Catalog) Climate() *Climate {
	return c.climate
}

func (c *Catalog) Guidelines() *Guidelines {
	return c.guidelines
}

// Stats summarizes the loaded catalog.
type Stats struct {
	Version        string   `json:"version"`
	LastUpdated    string   `json:"lastUpdated"`
	Region         string   `json:"region"`
	TotalCrops     int      `json:"totalCrops"`
	TotalSoilTypes int      `json:"totalSoilTypes"`
	Crops          []string `json:"crops"`
	SoilTypes      []string `json:"soilTypes"`
}

func (c *Catalog) Stats() Stats {
	st := Stats{
		Version:        c.version,
		LastUpdated:    c.updated,
		Region:         c.region,
		TotalCrops:     len(c.crops),
		TotalSoilTypes: len(c.soils),
	}
	for _, crop := range c.Crops() {
		st.Crops = append(st.Crops, crop.ID)
	}
	for _, soil := range c.Soils() {
		st.SoilTypes = append(st.SoilTypes, soil.ID)
	}
	return st
}
