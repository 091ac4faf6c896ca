package irrigation

import (
	"testing"

	"github.com/i474232898/irrigation-advisor/internal/refdata"
)

// fakeLookup is a synthetic reference table for engine tests.
type fakeLookup struct {
	crops map[string]refdata.CropProfile
	soils map[string]refdata.SoilProfile
}

func (f fakeLookup) Crop(id string) (refdata.CropProfile, bool) {
	c, ok := f.crops[id]
	return c, ok
}

func (f fakeLookup) Soil(id string) (refdata.SoilProfile, bool) {
	s, ok := f.soils[id]
	return s, ok
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	catalog, err := refdata.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return NewEngine(catalog)
}

var stageOrder = map[refdata.Stage]int{
	refdata.StageInitial:     0,
	refdata.StageDevelopment: 1,
	refdata.StageMid:         2,
	refdata.StageLate:        3,
	refdata.StageHarvest:     4,
}

func TestGrowthStage(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		crop string
		days int
		want refdata.Stage
	}{
		{"cotton", 0, refdata.StageInitial},
		{"cotton", 15, refdata.StageInitial},
		{"cotton", 30, refdata.StageInitial},
		{"cotton", 31, refdata.StageDevelopment},
		{"cotton", 80, refdata.StageMid},
		{"cotton", 120, refdata.StageMid},
		{"cotton", 150, refdata.StageLate},
		{"cotton", 400, refdata.StageHarvest},
		{"wheat", 20, refdata.StageInitial},
		{"wheat", 21, refdata.StageDevelopment},
		{"Rice", 95, refdata.StageMid},
	}

	for _, tt := range tests {
		got, res := e.GrowthStage(tt.crop, tt.days)
		if got != tt.want {
			t.Errorf("GrowthStage(%s, %d) = %s, want %s", tt.crop, tt.days, got, tt.want)
		}
		if res != Resolved {
			t.Errorf("GrowthStage(%s, %d) resolution = %s, want resolved", tt.crop, tt.days, res)
		}
	}
}

func TestGrowthStageTerminalAndMonotonic(t *testing.T) {
	e := newTestEngine(t)
	catalog, _ := refdata.Default()

	for _, crop := range catalog.Crops() {
		total := crop.TotalDuration()
		for days := total; days < total+50; days++ {
			if got, _ := e.GrowthStage(crop.ID, days); got != refdata.StageHarvest {
				t.Fatalf("%s day %d = %s, want harvest", crop.ID, days, got)
			}
		}

		prev := -1
		for days := 0; days <= total+10; days++ {
			stage, _ := e.GrowthStage(crop.ID, days)
			idx := stageOrder[stage]
			if idx < prev {
				t.Fatalf("%s stage went backwards at day %d: %s", crop.ID, days, stage)
			}
			prev = idx
		}
	}
}

func TestGrowthStageUnknownCrop(t *testing.T) {
	e := newTestEngine(t)
	stage, res := e.GrowthStage("tomatoes", 10)
	if stage != refdata.StageMid || res != FallbackUnknownCrop {
		t.Errorf("GrowthStage(tomatoes) = %s/%s, want mid/unknown-crop", stage, res)
	}
}

func TestCropCoefficient(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name    string
		crop    string
		stage   refdata.Stage
		want    float64
		wantRes Resolution
	}{
		{"cotton initial", "cotton", refdata.StageInitial, 0.4, Resolved},
		{"cotton mid", "cotton", refdata.StageMid, 1.15, Resolved},
		{"wheat harvest", "wheat", refdata.StageHarvest, 0.2, Resolved},
		{"unknown stage uses mid", "cotton", refdata.Stage("flowering"), 1.15, FallbackUnknownStage},
		{"unknown crop", "tomatoes", refdata.StageMid, 1.0, FallbackUnknownCrop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, res := e.CropCoefficient(tt.crop, tt.stage)
			if got != tt.want || res != tt.wantRes {
				t.Errorf("CropCoefficient = %v/%s, want %v/%s", got, res, tt.want, tt.wantRes)
			}
		})
	}
}

func TestCropET(t *testing.T) {
	e := newTestEngine(t)

	if got := e.CropET(5, "cotton", 15); got != 5*0.4 {
		t.Errorf("CropET(cotton day 15) = %v, want %v", got, 5*0.4)
	}
	if got := e.CropET(5, "cotton", 80); got != 5*1.15 {
		t.Errorf("CropET(cotton day 80) = %v, want %v", got, 5*1.15)
	}
	if got := e.CropET(5, "unknown", 80); got != 5 {
		t.Errorf("CropET(unknown) = %v, want 5", got)
	}
}

func TestEngineWithSyntheticProfiles(t *testing.T) {
	e := NewEngine(fakeLookup{
		crops: map[string]refdata.CropProfile{
			"melon": {ID: "melon", Stages: []refdata.StageProfile{
				{Name: refdata.StageInitial, Kc: 0.5, Duration: 10},
				{Name: refdata.StageMid, Kc: 1.2, Duration: 10},
			}},
		},
	})

	if stage, _ := e.GrowthStage("melon", 11); stage != refdata.StageMid {
		t.Errorf("melon day 11 = %s, want mid", stage)
	}
	if stage, _ := e.GrowthStage("melon", 90); stage != refdata.StageMid {
		t.Errorf("melon day 90 = %s, want terminal stage mid", stage)
	}

	// No soils at all: the built-in loamy profile applies.
	wb := e.WaterBalance("anything", 10, 0, 0)
	if wb.FieldCapacity != 25 || wb.CurrentAvailableWaterPercent != 0 {
		t.Errorf("fallback balance = %+v", wb)
	}
}
