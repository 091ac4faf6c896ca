package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/alecthomas/kong"

	"github.com/i474232898/irrigation-advisor/internal/irrigation"
	"github.com/i474232898/irrigation-advisor/internal/refdata"
)

// CLI is the command tree of the irrigation-advisor binary.
type CLI struct {
	Refdata string `help:"Path to a crop and soil catalog JSON overriding the built-in one." env:"REFDATA_PATH" type:"path"`

	Serve     ServeCmd     `cmd:"" default:"1" help:"Run the HTTP API with scheduled weather refresh."`
	ET0       ET0Cmd       `cmd:"" name:"et0" help:"Compute reference evapotranspiration for one observation."`
	Recommend RecommendCmd `cmd:"" help:"Compute an irrigation recommendation offline."`
	Crops     CropsCmd     `cmd:"" help:"List the crops and soils in the catalog."`
}

// WeatherFlags describe one weather observation on the command line.
type WeatherFlags struct {
	Temperature float64 `help:"Air temperature in °C." default:"25"`
	Humidity    float64 `help:"Relative humidity in percent." default:"60"`
	Wind        float64 `help:"Wind speed in km/h." default:"10"`
	Pressure    float64 `help:"Atmospheric pressure in kPa." default:"101.3"`
	Solar       float64 `help:"Solar radiation in MJ/m²/day; 0 estimates it."`
	Rain        float64 `help:"Precipitation in mm."`
}

func (w WeatherFlags) observation() irrigation.WeatherObservation {
	obs := irrigation.WeatherObservation{
		Temperature:   w.Temperature,
		Humidity:      w.Humidity,
		WindSpeed:     w.Wind,
		Pressure:      irrigation.Float(w.Pressure),
		Precipitation: irrigation.Float(w.Rain),
	}
	if w.Solar > 0 {
		obs.SolarRadiation = irrigation.Float(w.Solar)
	}
	return obs
}

type ET0Cmd struct {
	WeatherFlags `embed:""`
}

func (c *ET0Cmd) Run() error {
	et0, err := irrigation.ReferenceET(c.observation())
	if err != nil {
		return err
	}
	return printJSON(map[string]any{
		"ET0":  math.Round(et0*100) / 100,
		"unit": "mm/day",
	})
}

type RecommendCmd struct {
	Crop              string  `arg:"" help:"Crop type, e.g. cotton."`
	Soil              string  `help:"Soil type." default:"loamy"`
	Moisture          float64 `help:"Volumetric soil moisture in percent." default:"50"`
	DaysSincePlanting int     `help:"Days since planting." default:"60"`
	Area              float64 `help:"Field area in hectares." default:"1"`
	RecentRainfall    float64 `help:"Rainfall over the last days in mm."`
	Efficiency        float64 `help:"Irrigation efficiency (0-1]." default:"0.85"`

	WeatherFlags `embed:"" prefix:"weather-"`
}

func (c *RecommendCmd) Run(catalog *refdata.Catalog) error {
	engine := irrigation.NewEngine(catalog)
	rec, err := engine.Recommend(irrigation.Parameters{
		CropType:             c.Crop,
		SoilType:             c.Soil,
		DaysSincePlanting:    c.DaysSincePlanting,
		Area:                 c.Area,
		RecentRainfall:       c.RecentRainfall,
		SoilMoisture:         c.Moisture,
		IrrigationEfficiency: c.Efficiency,
		Weather:              c.observation(),
	})
	if err != nil {
		return err
	}
	return printJSON(map[string]any{
		"recommendation": rec,
		"advisories":     catalog.Advisories(c.Crop, c.Soil),
	})
}

type CropsCmd struct {
	Soils bool `help:"List soil types instead of crops."`
}

func (c *CropsCmd) Run(catalog *refdata.Catalog) error {
	if c.Soils {
		for _, soil := range catalog.Soils() {
			fmt.Printf("%-10s  FC %.2f  WP %.2f  %s\n", soil.ID, soil.FieldCapacity, soil.WiltingPoint, soil.Name)
		}
		return nil
	}
	for _, crop := range catalog.Crops() {
		fmt.Printf("%-8s  %3d days  %s\n", crop.ID, crop.TotalDuration(), crop.Name)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("irrigation-advisor"),
		kong.Description("Irrigation decision engine for Uzbekistan farms."),
		kong.UsageOnError(),
	)

	catalog, err := refdata.Load(cli.Refdata)
	ctx.FatalIfErrorf(err)

	ctx.FatalIfErrorf(ctx.Run(catalog))
}
