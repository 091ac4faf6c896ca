package irrigation

import "math"

// Penman-Monteith constants. The longwave term and the resistances are the
// simplified values this advisor has always used, not the FAO-56 table.
const (
	stefanBoltzmann       = 4.903e-9 // MJ K⁻⁴ m⁻² day⁻¹
	latentHeat            = 2.45     // MJ kg⁻¹
	psychrometricFactor   = 0.665
	albedo                = 0.23
	canopyResistance      = 70.0  // s m⁻¹
	aerodynamicResistance = 208.0 // s m⁻¹
	soilHeatFluxRatio     = 0.1
)

// SaturationVaporPressure returns es in kPa for a temperature in °C.
func SaturationVaporPressure(t float64) float64 {
	return 0.6108 * math.Exp(17.27*t/(t+237.3))
}

// EstimateSolarRadiation approximates Rs (MJ/m²/day) from temperature and humidity.
func EstimateSolarRadiation(t, rh float64) float64 {
	return 0.16 * math.Sqrt(math.Max(0, t+17.8)) * (1 - rh/100) * 10
}

// NetRadiation returns Rn (MJ/m²/day). A nil or zero solarRadiation is
// replaced by EstimateSolarRadiation. The result is not clamped.
func NetRadiation(solarRadiation *float64, t, rh float64) float64 {
	var rs float64
	if solarRadiation != nil && *solarRadiation != 0 {
		rs = *solarRadiation
	} else {
		rs = EstimateSolarRadiation(t, rh)
	}

	rns := (1 - albedo) * rs
	rnl := stefanBoltzmann * math.Pow(t+273.15, 4) *
		(0.34 - 0.14*math.Sqrt(rh/100)) *
		(1.35*rs/20 - 0.35)
	return rns - rnl
}

// ReferenceET computes reference evapotranspiration ET0 in mm/day. Negative
// results from extreme inputs are floored at zero.
func ReferenceET(obs WeatherObservation) (float64, error) {
	if err := obs.Validate(); err != nil {
		return 0, err
	}

	t, rh := obs.Temperature, obs.Humidity

	es := SaturationVaporPressure(t)
	ea := rh / 100 * es
	vpd := es - ea
	delta := 4098 * es / math.Pow(t+237.3, 2)
	gamma := psychrometricFactor * obs.PressureKPa() / 100

	rn := NetRadiation(obs.SolarRadiation, t, rh)
	g := soilHeatFluxRatio * rn

	windFn := 0.34 * (1 + 0.54*obs.WindSpeed)

	numerator := delta*(rn-g) + latentHeat*windFn*vpd
	denominator := delta + gamma*(1+canopyResistance/aerodynamicResistance)

	et0 := numerator / denominator
	if math.IsNaN(et0) || et0 < 0 {
		return 0, nil
	}
	return et0, nil
}
