package farm

import (
	"context"
	"errors"
	"time"
)

var (
	ErrFarmNotFound = errors.New("farm not found")
	ErrInvalidFarm  = errors.New("invalid farm")
	ErrInvalidLog   = errors.New("invalid irrigation log")
)

// Farm is a field under management. Efficiencies are percentages.
type Farm struct {
	ID                    string     `json:"id"`
	Name                  string     `json:"name"`
	Location              string     `json:"location"`
	CropType              string     `json:"cropType"`
	SoilType              string     `json:"soilType"`
	Area                  float64    `json:"area"`
	CurrentEfficiency     float64    `json:"currentEfficiency"`
	TraditionalEfficiency float64    `json:"traditionalEfficiency"`
	WaterCostPerLiter     float64    `json:"waterCostPerLiter"`
	MonthlyWaterUsage     float64    `json:"monthlyWaterUsage"`
	TotalWaterUsed        float64    `json:"totalWaterUsed"`
	LastIrrigation        *time.Time `json:"lastIrrigation,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
}

// IrrigationLog records one irrigation event. Amount is in liters.
type IrrigationLog struct {
	ID                string         `json:"id"`
	FarmID            string         `json:"farmId"`
	CropType          string         `json:"cropType"`
	Area              float64        `json:"area"`
	Amount            float64        `json:"amount"`
	Duration          *float64       `json:"duration"`
	Zones             []string       `json:"zones"`
	WeatherConditions map[string]any `json:"weatherConditions"`
	Notes             string         `json:"notes"`
	Timestamp         time.Time      `json:"timestamp"`
	CreatedAt         time.Time      `json:"createdAt"`
}

// LogPage is one page of a farm's irrigation history, newest first.
type LogPage struct {
	Logs   []IrrigationLog `json:"logs"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// Repository persists farms and irrigation logs.
type Repository interface {
	CreateFarm(ctx context.Context, f Farm) error
	GetFarm(ctx context.Context, id string) (Farm, error)
	ListFarms(ctx context.Context) ([]Farm, error)
	// InsertLog stores the log and, when the farm exists, bumps its last
	// irrigation time and total water used.
	InsertLog(ctx context.Context, l IrrigationLog) error
	ListLogs(ctx context.Context, farmID string, limit, offset int) ([]IrrigationLog, int, error)
	WaterUsedSince(ctx context.Context, farmID string, since time.Time) (float64, error)
	Stats(ctx context.Context) (Stats, error)
}

// Stats counts stored records.
type Stats struct {
	Farms          int     `json:"farms"`
	IrrigationLogs int     `json:"irrigationLogs"`
	TotalWaterUsed float64 `json:"totalWaterUsed"`
	SchemaVersion  int     `json:"schemaVersion"`
}
