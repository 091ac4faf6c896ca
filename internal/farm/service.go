// Package farm keeps per-farm irrigation bookkeeping: farms, logged
// irrigation events and the water savings they add up to.
package farm

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/irrigation-advisor/internal/metrics"
)

const (
	DefaultCurrentEfficiency     = 75.0
	DefaultTraditionalEfficiency = 60.0
	DefaultWaterCostPerLiter     = 0.003

	defaultLogLimit = 50
	maxLogLimit     = 500
)

// NewFarm is the input for CreateFarm. Zero efficiencies and cost take the
// defaults.
type NewFarm struct {
	Name                  string  `json:"name" validate:"required"`
	Location              string  `json:"location" validate:"required"`
	CropType              string  `json:"cropType" validate:"required"`
	SoilType              string  `json:"soilType"`
	Area                  float64 `json:"area" validate:"gt=0"`
	CurrentEfficiency     float64 `json:"currentEfficiency" validate:"gte=0,lte=100"`
	TraditionalEfficiency float64 `json:"traditionalEfficiency" validate:"gte=0,lte=100"`
	WaterCostPerLiter     float64 `json:"waterCostPerLiter" validate:"gte=0"`
}

// NewLog is the input for LogIrrigation.
type NewLog struct {
	FarmID            string         `json:"farmId" validate:"required"`
	CropType          string         `json:"cropType" validate:"required"`
	Area              float64        `json:"area" validate:"gt=0"`
	Amount            float64        `json:"amount" validate:"gt=0"`
	Duration          *float64       `json:"duration" validate:"omitempty,gte=0"`
	Zones             []string       `json:"zones"`
	WeatherConditions map[string]any `json:"weatherConditions"`
	Notes             string         `json:"notes"`
}

// Service implements farm bookkeeping over a Repository.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// CreateFarm validates and stores a new farm with a generated ID.
func (s *Service) CreateFarm(ctx context.Context, in NewFarm) (Farm, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Location) == "" || strings.TrimSpace(in.CropType) == "" {
		return Farm{}, fmt.Errorf("%w: name, location and cropType are required", ErrInvalidFarm)
	}
	if !(in.Area > 0) {
		return Farm{}, fmt.Errorf("%w: area must be positive", ErrInvalidFarm)
	}

	f := Farm{
		ID:                    uuid.NewString(),
		Name:                  in.Name,
		Location:              in.Location,
		CropType:              strings.ToLower(in.CropType),
		SoilType:              strings.ToLower(in.SoilType),
		Area:                  in.Area,
		CurrentEfficiency:     orDefault(in.CurrentEfficiency, DefaultCurrentEfficiency),
		TraditionalEfficiency: orDefault(in.TraditionalEfficiency, DefaultTraditionalEfficiency),
		WaterCostPerLiter:     orDefault(in.WaterCostPerLiter, DefaultWaterCostPerLiter),
		CreatedAt:             s.now().UTC(),
	}
	if f.SoilType == "" {
		f.SoilType = "loamy"
	}

	if err := s.repo.CreateFarm(ctx, f); err != nil {
		return Farm{}, fmt.Errorf("create farm: %w", err)
	}
	return f, nil
}

func (s *Service) GetFarm(ctx context.Context, id string) (Farm, error) {
	return s.repo.GetFarm(ctx, id)
}

func (s *Service) ListFarms(ctx context.Context) ([]Farm, error) {
	return s.repo.ListFarms(ctx)
}

// LogIrrigation records an irrigation event. Logs for farms that are not
// registered are kept, they just do not update any farm totals.
func (s *Service) LogIrrigation(ctx context.Context, in NewLog) (IrrigationLog, error) {
	if in.FarmID == "" || in.CropType == "" || !(in.Area > 0) || !(in.Amount > 0) {
		return IrrigationLog{}, fmt.Errorf("%w: missing required fields: farmId, cropType, area, amount", ErrInvalidLog)
	}

	now := s.now().UTC()
	entry := IrrigationLog{
		ID:                uuid.NewString(),
		FarmID:            in.FarmID,
		CropType:          strings.ToLower(in.CropType),
		Area:              in.Area,
		Amount:            in.Amount,
		Duration:          in.Duration,
		Zones:             in.Zones,
		WeatherConditions: in.WeatherConditions,
		Notes:             in.Notes,
		Timestamp:         now,
		CreatedAt:         now,
	}
	if entry.Zones == nil {
		entry.Zones = []string{}
	}
	if entry.WeatherConditions == nil {
		entry.WeatherConditions = map[string]any{}
	}

	if err := s.repo.InsertLog(ctx, entry); err != nil {
		return IrrigationLog{}, fmt.Errorf("log irrigation: %w", err)
	}

	metrics.IrrigationLogsTotal.Inc()
	metrics.IrrigationWaterLiters.Add(entry.Amount)
	log.Printf("INFO: logged %.0f L irrigation for farm %s", entry.Amount, entry.FarmID)
	return entry, nil
}

// ListLogs pages through a farm's logs, newest first. limit <= 0 means 50.
func (s *Service) ListLogs(ctx context.Context, farmID string, limit, offset int) (LogPage, error) {
	if limit <= 0 {
		limit = defaultLogLimit
	}
	if limit > maxLogLimit {
		limit = maxLogLimit
	}
	if offset < 0 {
		offset = 0
	}

	logs, total, err := s.repo.ListLogs(ctx, farmID, limit, offset)
	if err != nil {
		return LogPage{}, fmt.Errorf("list logs: %w", err)
	}
	if logs == nil {
		logs = []IrrigationLog{}
	}
	return LogPage{Logs: logs, Total: total, Limit: limit, Offset: offset}, nil
}

// Stats reports repository counts.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.repo.Stats(ctx)
}

// SeedSamples inserts the demo farms when the repository is empty.
func (s *Service) SeedSamples(ctx context.Context) error {
	farms, err := s.repo.ListFarms(ctx)
	if err != nil {
		return err
	}
	if len(farms) > 0 {
		return nil
	}

	now := s.now().UTC()
	for _, f := range sampleFarms(now) {
		if err := s.repo.CreateFarm(ctx, f); err != nil {
			return fmt.Errorf("seed farm %s: %w", f.ID, err)
		}
	}
	log.Printf("INFO: seeded %d sample farms", len(sampleFarms(now)))
	return nil
}

func sampleFarms(now time.Time) []Farm {
	return []Farm{
		{
			ID:                    "farm1",
			Name:                  "Green Valley Farm",
			Location:              "Fergana, Uzbekistan",
			CropType:              "cotton",
			SoilType:              "loamy",
			Area:                  10,
			CurrentEfficiency:     75,
			TraditionalEfficiency: 60,
			WaterCostPerLiter:     0.003,
			MonthlyWaterUsage:     2500,
			CreatedAt:             now,
		},
		{
			ID:                    "farm2",
			Name:                  "Sunrise Agriculture",
			Location:              "Samarkand, Uzbekistan",
			CropType:              "wheat",
			SoilType:              "clay_loam",
			Area:                  25,
			CurrentEfficiency:     85,
			TraditionalEfficiency: 65,
			WaterCostPerLiter:     0.0025,
			MonthlyWaterUsage:     5000,
			CreatedAt:             now,
		},
	}
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
