package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/i474232898/irrigation-advisor/internal/farm"
)

// FarmStore persists farms and irrigation logs in SQLite.
type FarmStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path. Use ":memory:" for an
// ephemeral database.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// SQLite serializes writers; one connection also keeps :memory: shared.
	db.SetMaxOpenConns(1)
	if path != ":memory:" {
		db.Exec("PRAGMA journal_mode=WAL")
		db.Exec("PRAGMA busy_timeout=5000")
	}
	return db, nil
}

func NewFarmStore(db *sql.DB) *FarmStore {
	return &FarmStore{db: db}
}

const farmColumns = `id, name, location, crop_type, soil_type, area, current_efficiency,
	traditional_efficiency, water_cost_per_liter, monthly_water_usage, total_water_used,
	last_irrigation, created_at`

func (s *FarmStore) CreateFarm(ctx context.Context, f farm.Farm) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO farms (`+farmColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, f.ID, f.Name, f.Location, f.CropType, f.SoilType, f.Area, f.CurrentEfficiency,
		f.TraditionalEfficiency, f.WaterCostPerLiter, f.MonthlyWaterUsage, f.TotalWaterUsed,
		f.LastIrrigation, f.CreatedAt.UTC())
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFarm(row scanner) (farm.Farm, error) {
	var f farm.Farm
	var lastIrrigation *time.Time
	err := row.Scan(&f.ID, &f.Name, &f.Location, &f.CropType, &f.SoilType, &f.Area,
		&f.CurrentEfficiency, &f.TraditionalEfficiency, &f.WaterCostPerLiter,
		&f.MonthlyWaterUsage, &f.TotalWaterUsed, &lastIrrigation, &f.CreatedAt)
	if err != nil {
		return farm.Farm{}, err
	}
	f.LastIrrigation = lastIrrigation
	return f, nil
}

func (s *FarmStore) GetFarm(ctx context.Context, id string) (farm.Farm, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+farmColumns+` FROM farms WHERE id = ?`, id)
	f, err := scanFarm(row)
	if errors.Is(err, sql.ErrNoRows) {
		return farm.Farm{}, fmt.Errorf("%w: %s", farm.ErrFarmNotFound, id)
	}
	return f, err
}

func (s *FarmStore) ListFarms(ctx context.Context) ([]farm.Farm, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+farmColumns+` FROM farms ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var farms []farm.Farm
	for rows.Next() {
		f, err := scanFarm(rows)
		if err != nil {
			return nil, err
		}
		farms = append(farms, f)
	}
	return farms, rows.Err()
}

func (s *FarmStore) InsertLog(ctx context.Context, l farm.IrrigationLog) error {
	zones, err := json.Marshal(l.Zones)
	if err != nil {
		return fmt.Errorf("encode zones: %w", err)
	}
	conditions, err := json.Marshal(l.WeatherConditions)
	if err != nil {
		return fmt.Errorf("encode weather conditions: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO irrigation_logs (id, farm_id, crop_type, area, amount, duration, zones, weather_conditions, notes, irrigated_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, l.ID, l.FarmID, l.CropType, l.Area, l.Amount, l.Duration, string(zones), string(conditions),
		l.Notes, l.Timestamp.UTC(), l.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("insert log: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE farms SET last_irrigation = ?, total_water_used = total_water_used + ?
		WHERE id = ?
	`, l.Timestamp.UTC(), l.Amount, l.FarmID); err != nil {
		return fmt.Errorf("update farm totals: %w", err)
	}

	return tx.Commit()
}

func (s *FarmStore) ListLogs(ctx context.Context, farmID string, limit, offset int) ([]farm.IrrigationLog, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM irrigation_logs WHERE farm_id = ?`, farmID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, farm_id, crop_type, area, amount, duration, zones, weather_conditions, notes, irrigated_at, created_at
		FROM irrigation_logs
		WHERE farm_id = ?
		ORDER BY irrigated_at DESC, created_at DESC
		LIMIT ? OFFSET ?
	`, farmID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var logs []farm.IrrigationLog
	for rows.Next() {
		var (
			l                 farm.IrrigationLog
			duration          sql.NullFloat64
			zones, conditions string
		)
		if err := rows.Scan(&l.ID, &l.FarmID, &l.CropType, &l.Area, &l.Amount, &duration,
			&zones, &conditions, &l.Notes, &l.Timestamp, &l.CreatedAt); err != nil {
			return nil, 0, err
		}
		if duration.Valid {
			d := duration.Float64
			l.Duration = &d
		}
		if err := json.Unmarshal([]byte(zones), &l.Zones); err != nil {
			return nil, 0, fmt.Errorf("decode zones of %s: %w", l.ID, err)
		}
		if err := json.Unmarshal([]byte(conditions), &l.WeatherConditions); err != nil {
			return nil, 0, fmt.Errorf("decode weather conditions of %s: %w", l.ID, err)
		}
		logs = append(logs, l)
	}
	return logs, total, rows.Err()
}

func (s *FarmStore) WaterUsedSince(ctx context.Context, farmID string, since time.Time) (float64, error) {
	var total sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT SUM(amount) FROM irrigation_logs
		WHERE farm_id = ? AND irrigated_at >= ?
	`, farmID, since.UTC()).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total.Float64, nil
}

func (s *FarmStore) Stats(ctx context.Context) (farm.Stats, error) {
	var st farm.Stats
	var water sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM farms),
			(SELECT COUNT(*) FROM irrigation_logs),
			(SELECT SUM(amount) FROM irrigation_logs)
	`).Scan(&st.Farms, &st.IrrigationLogs, &water)
	if err != nil {
		return farm.Stats{}, err
	}
	st.TotalWaterUsed = water.Float64

	version, err := s.MigrationVersion()
	if err != nil {
		return farm.Stats{}, err
	}
	st.SchemaVersion = version
	return st, nil
}
