package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/i474232898/irrigation-advisor/internal/farm"
)

func setupTestStore(t *testing.T) *FarmStore {
	t.Helper()
	db, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s := NewFarmStore(db)
	if err := s.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func testFarm(id string, created time.Time) farm.Farm {
	return farm.Farm{
		ID:                    id,
		Name:                  "Farm " + id,
		Location:              "Bukhara, Uzbekistan",
		CropType:              "cotton",
		SoilType:              "sandy",
		Area:                  4,
		CurrentEfficiency:     80,
		TraditionalEfficiency: 55,
		WaterCostPerLiter:     0.002,
		CreatedAt:             created,
	}
}

func testLog(id, farmID string, at time.Time, amount float64) farm.IrrigationLog {
	return farm.IrrigationLog{
		ID:                id,
		FarmID:            farmID,
		CropType:          "cotton",
		Area:              4,
		Amount:            amount,
		Zones:             []string{"north"},
		WeatherConditions: map[string]any{"temperature": 31.5},
		Timestamp:         at,
		CreatedAt:         at,
	}
}

func TestMigrateIdempotent(t *testing.T) {
	s := setupTestStore(t)

	if err := s.Migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	version, err := s.MigrationVersion()
	if err != nil {
		t.Fatal(err)
	}
	if version != 2 {
		t.Errorf("version = %d, want 2", version)
	}
}

func TestFarmCRUD(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, time.April, 1, 8, 0, 0, 0, time.UTC)

	if err := s.CreateFarm(ctx, testFarm("b", base.Add(time.Hour))); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateFarm(ctx, testFarm("a", base)); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetFarm(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Farm a" || got.SoilType != "sandy" || got.CurrentEfficiency != 80 {
		t.Errorf("GetFarm = %+v", got)
	}
	if !got.CreatedAt.Equal(base) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, base)
	}
	if got.LastIrrigation != nil {
		t.Errorf("LastIrrigation = %v, want nil", got.LastIrrigation)
	}

	farms, err := s.ListFarms(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(farms) != 2 || farms[0].ID != "a" || farms[1].ID != "b" {
		t.Errorf("ListFarms order = %+v, want a then b", farms)
	}

	if _, err := s.GetFarm(ctx, "missing"); !errors.Is(err, farm.ErrFarmNotFound) {
		t.Errorf("GetFarm(missing) error = %v, want ErrFarmNotFound", err)
	}
}

func TestInsertLogUpdatesFarm(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, time.June, 1, 6, 0, 0, 0, time.UTC)

	if err := s.CreateFarm(ctx, testFarm("f1", base)); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertLog(ctx, testLog("l1", "f1", base.Add(2*time.Hour), 1200)); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertLog(ctx, testLog("l2", "f1", base.Add(26*time.Hour), 800)); err != nil {
		t.Fatal(err)
	}

	f, err := s.GetFarm(ctx, "f1")
	if err != nil {
		t.Fatal(err)
	}
	if f.TotalWaterUsed != 2000 {
		t.Errorf("TotalWaterUsed = %v, want 2000", f.TotalWaterUsed)
	}
	if f.LastIrrigation == nil || !f.LastIrrigation.Equal(base.Add(26*time.Hour)) {
		t.Errorf("LastIrrigation = %v, want %v", f.LastIrrigation, base.Add(26*time.Hour))
	}
}

func TestInsertLogForUnknownFarm(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	at := time.Date(2025, time.June, 1, 6, 0, 0, 0, time.UTC)

	if err := s.InsertLog(ctx, testLog("l1", "ghost", at, 300)); err != nil {
		t.Fatalf("InsertLog for unknown farm: %v", err)
	}
	logs, total, err := s.ListLogs(ctx, "ghost", 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(logs) != 1 {
		t.Errorf("got %d logs (total %d), want 1", len(logs), total)
	}
}

func TestListLogsNewestFirstWithPaging(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, time.July, 1, 5, 0, 0, 0, time.UTC)

	if err := s.CreateFarm(ctx, testFarm("f1", base)); err != nil {
		t.Fatal(err)
	}
	ids := []string{"l1", "l2", "l3", "l4"}
	for i, id := range ids {
		if err := s.InsertLog(ctx, testLog(id, "f1", base.Add(time.Duration(i)*24*time.Hour), 100)); err != nil {
			t.Fatal(err)
		}
	}

	logs, total, err := s.ListLogs(ctx, "f1", 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 4 {
		t.Errorf("total = %d, want 4", total)
	}
	if len(logs) != 2 || logs[0].ID != "l4" || logs[1].ID != "l3" {
		t.Fatalf("first page = %+v, want l4, l3", logs)
	}
	if len(logs[0].Zones) != 1 || logs[0].Zones[0] != "north" {
		t.Errorf("zones = %v, want [north]", logs[0].Zones)
	}
	if logs[0].WeatherConditions["temperature"] != 31.5 {
		t.Errorf("weather conditions = %v", logs[0].WeatherConditions)
	}
	if logs[0].Duration != nil {
		t.Errorf("duration = %v, want nil", *logs[0].Duration)
	}

	logs, _, err = s.ListLogs(ctx, "f1", 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 2 || logs[0].ID != "l2" || logs[1].ID != "l1" {
		t.Errorf("second page = %+v, want l2, l1", logs)
	}
}

func TestWaterUsedSince(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, time.August, 10, 0, 0, 0, 0, time.UTC)

	if got, err := s.WaterUsedSince(ctx, "f1", base); err != nil || got != 0 {
		t.Fatalf("WaterUsedSince on empty = %v, %v; want 0", got, err)
	}

	for i, amount := range []float64{500, 700, 900} {
		at := base.Add(time.Duration(i*3) * 24 * time.Hour)
		if err := s.InsertLog(ctx, testLog(string(rune('a'+i)), "f1", at, amount)); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.InsertLog(ctx, testLog("other", "f2", base.Add(7*24*time.Hour), 10000)); err != nil {
		t.Fatal(err)
	}

	got, err := s.WaterUsedSince(ctx, "f1", base.Add(3*24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if got != 1600 {
		t.Errorf("WaterUsedSince = %v, want 1600", got)
	}
}

func TestFarmStoreStats(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	at := time.Date(2025, time.May, 5, 9, 0, 0, 0, time.UTC)

	if err := s.CreateFarm(ctx, testFarm("f1", at)); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertLog(ctx, testLog("l1", "f1", at, 250)); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertLog(ctx, testLog("l2", "f1", at.Add(time.Hour), 350)); err != nil {
		t.Fatal(err)
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := farm.Stats{Farms: 1, IrrigationLogs: 2, TotalWaterUsed: 600, SchemaVersion: 2}
	if st != want {
		t.Errorf("Stats = %+v, want %+v", st, want)
	}
}
