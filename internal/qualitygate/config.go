package qualitygate

import (
	"fmt"
	"strings"
)

// GateConfig defines the configuration for quality gates. A zero limit
// disables the corresponding gate.
type GateConfig struct {
	Enabled bool `mapstructure:"enabled" json:"enabled"`

	MaxCouplingScore float64 `mapstructure:"max_coupling_score" json:"max_coupling_score"`
	CouplingSeverity string  `mapstructure:"coupling_severity" json:"coupling_severity"`

	MaxDensity      float64 `mapstructure:"max_density" json:"max_density"`
	DensitySeverity string  `mapstructure:"density_severity" json:"density_severity"`

	MaxCircularPairs int    `mapstructure:"max_circular_pairs" json:"max_circular_pairs"`
	CircularSeverity string `mapstructure:"circular_severity" json:"circular_severity"`

	MaxHubCount int    `mapstructure:"max_hub_count" json:"max_hub_count"`
	HubSeverity string `mapstructure:"hub_severity" json:"hub_severity"`

	MaxDegree      int    `mapstructure:"max_degree" json:"max_degree"`
	DegreeSeverity string `mapstructure:"degree_severity" json:"degree_severity"`
}

// DefaultConfig returns the default gate configuration.
func DefaultConfig() *GateConfig {
	return &GateConfig{
		Enabled:          true,
		MaxCouplingScore: 3.0,
		CouplingSeverity: "required",
		MaxDensity:       0, // disabled by default
		DensitySeverity:  "advisory",
		MaxCircularPairs: 0,
		CircularSeverity: "advisory",
		MaxHubCount:      0,
		HubSeverity:      "advisory",
		MaxDegree:        0,
		DegreeSeverity:   "advisory",
	}
}

// Validate returns warnings for unknown severities.
func (c *GateConfig) Validate() []string {
	var warnings []string
	for name, s := range map[string]string{
		"coupling": c.CouplingSeverity,
		"density":  c.DensitySeverity,
		"circular": c.CircularSeverity,
		"hubs":     c.HubSeverity,
		"degree":   c.DegreeSeverity,
	} {
		if _, ok := lookupSeverity(s); !ok && s != "" {
			warnings = append(warnings, fmt.Sprintf("gate %s: unknown severity %q, using required", name, s))
		}
	}
	return warnings
}

func lookupSeverity(s string) (GateSeverity, bool) {
	switch strings.ToLower(s) {
	case "critical":
		return SeverityCritical, true
	case "required":
		return SeverityRequired, true
	case "advisory":
		return SeverityAdvisory, true
	default:
		return SeverityRequired, false
	}
}

// parseSeverity converts a string to GateSeverity, defaulting to required.
func parseSeverity(s string) GateSeverity {
	sev, _ := lookupSeverity(s)
	return sev
}

// BuildPipeline constructs a gate pipeline from configuration.
func BuildPipeline(cfg *GateConfig) *Pipeline {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	p := NewPipeline()
	if !cfg.Enabled {
		return p
	}

	if cfg.MaxCouplingScore > 0 {
		p.AddGate(NewCouplingGate(cfg.MaxCouplingScore, parseSeverity(cfg.CouplingSeverity)))
	}
	if cfg.MaxDensity > 0 {
		p.AddGate(NewDensityGate(cfg.MaxDensity, parseSeverity(cfg.DensitySeverity)))
	}
	if cfg.MaxCircularPairs > 0 {
		p.AddGate(NewCircularGate(cfg.MaxCircularPairs, parseSeverity(cfg.CircularSeverity)))
	}
	if cfg.MaxHubCount > 0 {
		p.AddGate(NewHubGate(cfg.MaxHubCount, parseSeverity(cfg.HubSeverity)))
	}
	if cfg.MaxDegree > 0 {
		p.AddGate(NewDegreeGate(cfg.MaxDegree, parseSeverity(cfg.DegreeSeverity)))
	}

	return p
}

// FormatReport returns a human-readable quality gate report.
func FormatReport(result *PipelineResult) string {
	var b strings.Builder
	b.WriteString("╔══════════════════════════════════════════╗\n")
	b.WriteString("║        Coupling Gate Report              ║\n")
	b.WriteString("╠══════════════════════════════════════════╣\n")

	for _, gr := range result.Gates {
		icon := "✓"
		switch gr.Status {
		case GateFailed:
			icon = "✗"
		case GateSkipped:
			icon = "○"
		case GateWarning:
			icon = "⚠"
		}

		fmt.Fprintf(&b, "║ %s %-10s %-10s %s\n", icon, gr.Name, "["+strings.ToUpper(string(gr.Severity))+"]", gr.Message)
		for _, d := range gr.Details {
			fmt.Fprintf(&b, "║   → %s\n", d)
		}
	}

	b.WriteString("╠══════════════════════════════════════════╣\n")
	status := "PASSED"
	if result.Status == GateFailed {
		status = "FAILED"
	}
	fmt.Fprintf(&b, "║ Result: %s (%s)\n", status, result.Summary)
	b.WriteString("╚══════════════════════════════════════════╝\n")

	return b.String()
}
