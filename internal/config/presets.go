package config

import "sort"

func leo(name string, models ...string) *Config {
	cfg := DefaultConfig()
	cfg.Name = name
	cfg.Models = models
	return cfg
}

func withIntegrator(cfg *Config, name string, adaptive bool) *Config {
	cfg.Integrator = name
	cfg.Adaptive = adaptive
	return cfg
}

func tumble(name string, w [3]float64, inertia [3]float64) *Config {
	cfg := leo(name)
	cfg.Dt = 0.1
	cfg.Duration = 120
	cfg.Sample = 1
	cfg.Initial.W = w
	cfg.Objects[0].Inertia = inertia
	return cfg
}

func staged(name string, events ...EventSpec) *Config {
	cfg := leo(name, "gravity")
	cfg.Dt = 1
	cfg.Duration = 600
	cfg.Sample = 10
	upper := DefaultObject()
	upper.Symbol = "UPR"
	upper.Mass = 50
	upper.Position = [3]float64{0, 0, 2}
	cfg.Objects = append(cfg.Objects, upper)
	cfg.Events = events
	return cfg
}

var Presets = map[string]map[string]*Config{
	"orbit": {
		"leo":     leo("leo", "gravity"),
		"j4":      withIntegrator(leo("j4", "geopot"), "dopri", true),
		"drag":    withIntegrator(leo("drag", "gravity", "stdatm"), "dopri", true),
		"verlet":  withIntegrator(leo("verlet", "gravity"), "verlet", false),
		"charged": chargedLEO(),
	},
	"attitude": {
		"spin":     tumble("spin", [3]float64{0, 0, 0.5}, [3]float64{10, 10, 10}),
		"tumble":   tumble("tumble", [3]float64{0.2, 0.01, 0.01}, [3]float64{10, 20, 30}),
		"symplect": withIntegrator(tumble("symplect", [3]float64{0.01, 0.3, 0.01}, [3]float64{10, 20, 30}), "gl4", false),
	},
	"staging": {
		"separation": staged("separation", EventSpec{
			Time: 300, Object: 1, Kind: KindState, Mass: -50, Momentum: [3]float64{0, 50, 0},
		}),
		"burn": staged("burn",
			EventSpec{Time: 100, Object: 0, Kind: KindInput, Force: [3]float64{0, 15, 0}},
			EventSpec{Time: 160, Object: 0, Kind: KindInput, Force: [3]float64{0, -15, 0}},
		),
	},
}

func chargedLEO() *Config {
	cfg := leo("charged", "gravity", "geomag", "em")
	cfg.Objects[0].Charge = 1e-3
	cfg.Objects[0].MagneticDipole = [3]float64{0, 0, 1}
	return cfg
}

// GetPreset returns a copy of the named preset so callers may edit it.
func GetPreset(group, preset string) *Config {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	cfg, ok := groupPresets[preset]
	if !ok {
		return nil
	}
	cp := *cfg
	cp.Models = append([]string(nil), cfg.Models...)
	cp.Objects = append([]ObjectSpec(nil), cfg.Objects...)
	cp.Events = append([]EventSpec(nil), cfg.Events...)
	return &cp
}

func ListPresets(group string) []string {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(groupPresets))
	for name := range groupPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Groups() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
