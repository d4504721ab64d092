package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Overpass.UserAgent != "print3dhood/1.0" {
		t.Errorf("overpass user agent = %q", cfg.Overpass.UserAgent)
	}
	if cfg.Nominatim.UserAgent != "print3dhood/1.0" {
		t.Errorf("nominatim user agent = %q", cfg.Nominatim.UserAgent)
	}
	if cfg.Server.MaxConcurrentBuilds != 2 {
		t.Errorf("max concurrent builds = %d, want 2", cfg.Server.MaxConcurrentBuilds)
	}
	if cfg.Print.PlateDiameterM != 0.2 {
		t.Errorf("plate diameter = %g, want 0.2", cfg.Print.PlateDiameterM)
	}
}

func TestValidateCollectsFailures(t *testing.T) {
	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg.Overpass.UserAgent = ""
	cfg.Model.MaxBuildings = 0

	verr := cfg.Validate()
	if verr == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"overpass.user_agent", "model.max_buildings"} {
		if !strings.Contains(verr.Error(), want) {
			t.Errorf("validation error missing %q: %v", want, verr)
		}
	}
}
