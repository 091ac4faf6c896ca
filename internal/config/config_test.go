package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"HTTP_TIMEOUT", "FETCH_INTERVAL", "WEATHER_CACHE_TTL", "STORE_MAX_AGE", "STORE_MAX_HISTORY",
		"PROVIDER_RATE_LIMIT", "TZ", "DEFAULT_COUNTRY", "DB_PATH", "SEED_SAMPLE_FARMS", "PORT",
		"WEATHER_LOCATION_CITY", "WEATHER_LOCATION_COUNTRY",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPTimeout != 10*time.Second || cfg.FetchInterval != 15*time.Minute || cfg.WeatherCacheTTL != 10*time.Minute {
		t.Errorf("durations = %s %s %s", cfg.HTTPTimeout, cfg.FetchInterval, cfg.WeatherCacheTTL)
	}
	if cfg.StoreMaxHistory != 96 || cfg.StoreMaxAge != 24*time.Hour {
		t.Errorf("retention = %d %s", cfg.StoreMaxHistory, cfg.StoreMaxAge)
	}
	if cfg.TimeZone.String() != "Asia/Tashkent" || cfg.DefaultCountry != "UZ" {
		t.Errorf("tz/country = %s/%s", cfg.TimeZone, cfg.DefaultCountry)
	}
	if cfg.DBPath != "irrigation.db" || !cfg.SeedSamples || cfg.Port != "8080" || cfg.ProviderRateLimit != 60 {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.Locations) != 0 {
		t.Errorf("locations = %v, want none", cfg.Locations)
	}
}

func TestLoadLocations(t *testing.T) {
	tests := []struct {
		name      string
		cities    string
		countries string
		want      []string
		wantErr   bool
	}{
		{"paired", "Tashkent, Fergana", "UZ,UZ", []string{"Tashkent:UZ", "Fergana:UZ"}, false},
		{"single country applies to all", "Bukhara,Khiva", "UZ", []string{"Bukhara:UZ", "Khiva:UZ"}, false},
		{"country defaults", "Nukus", "", []string{"Nukus:UZ"}, false},
		{"empty entries skipped", "Samarkand,,", "UZ", []string{"Samarkand:UZ"}, false},
		{"mismatch", "Tashkent,Almaty,Bishkek", "UZ,KZ", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("WEATHER_LOCATION_CITY", tt.cities)
			t.Setenv("WEATHER_LOCATION_COUNTRY", tt.countries)

			locs, err := loadLocations("UZ")
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(locs) != len(tt.want) {
				t.Fatalf("got %d locations, want %d", len(locs), len(tt.want))
			}
			for i, loc := range locs {
				if loc.Key() != tt.want[i] {
					t.Errorf("location %d = %s, want %s", i, loc.Key(), tt.want[i])
				}
			}
		})
	}
}

func TestLoadInvalidValues(t *testing.T) {
	tests := map[string]string{
		"FETCH_INTERVAL": "soon",
		"HTTP_TIMEOUT":   "10",
		"TZ":             "Mars/Olympus_Mons",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Errorf("%s=%q should fail", key, value)
			}
		})
	}
}
