// pkg/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/opd-ai/go-helm/pkg/entity"
)

// EnvPrefix is prepended to every environment override, e.g. HELM_VESSEL_MAXSPEED.
const EnvPrefix = "HELM"

// ErrInvalidConfig is wrapped by every Validate failure
var ErrInvalidConfig = errors.New("invalid configuration")

// SimConfig contains configuration for a navigation simulation
type SimConfig struct {
	Arena  ArenaConfig  `json:"arena" mapstructure:"arena"`
	Vessel VesselConfig `json:"vessel" mapstructure:"vessel"`
	Orders OrderConfig  `json:"orders" mapstructure:"orders"`
	Target TargetConfig `json:"target" mapstructure:"target"`
	Loop   LoopConfig   `json:"loop" mapstructure:"loop"`
	Log    LogConfig    `json:"log" mapstructure:"log"`
}

// ArenaConfig describes the navigable water
type ArenaConfig struct {
	Width  float64 `json:"width" mapstructure:"width"`
	Height float64 `json:"height" mapstructure:"height"`
	Margin float64 `json:"margin" mapstructure:"margin"`
}

// VesselConfig contains the vessel's handling characteristics
type VesselConfig struct {
	Width             float64 `json:"width" mapstructure:"width"`
	Height            float64 `json:"height" mapstructure:"height"`
	MaxSpeed          float64 `json:"maxSpeed" mapstructure:"maxSpeed"`
	Acceleration      float64 `json:"acceleration" mapstructure:"acceleration"`
	MaxTurnRateDeg    float64 `json:"maxTurnRateDeg" mapstructure:"maxTurnRateDeg"`
	TurnDamping       float64 `json:"turnDamping" mapstructure:"turnDamping"`
	TurnSnapThreshold float64 `json:"turnSnapThreshold" mapstructure:"turnSnapThreshold"`
	StartOffset       float64 `json:"startOffset" mapstructure:"startOffset"` // distance of the start position from the bottom edge
}

// OrderConfig contains order timing defaults
type OrderConfig struct {
	DefaultDurationMs int64 `json:"defaultDurationMs" mapstructure:"defaultDurationMs"`
	PreparationMs     int64 `json:"preparationMs" mapstructure:"preparationMs"`
}

// TargetConfig describes the destination buoy
type TargetConfig struct {
	Radius float64 `json:"radius" mapstructure:"radius"`
	Speed  float64 `json:"speed" mapstructure:"speed"`
	Offset float64 `json:"offset" mapstructure:"offset"` // distance from the top edge
}

// LoopConfig contains frame loop settings
type LoopConfig struct {
	FrameStepMs    int64 `json:"frameStepMs" mapstructure:"frameStepMs"`
	MaxFrameStepMs int64 `json:"maxFrameStepMs" mapstructure:"maxFrameStepMs"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Format string `json:"format" mapstructure:"format"` // json or console
}

// Stats converts the vessel configuration into entity stats
func (c VesselConfig) Stats() entity.VesselStats {
	return entity.VesselStats{
		Width:                c.Width,
		Height:               c.Height,
		MaxSpeed:             c.MaxSpeed,
		Acceleration:         c.Acceleration,
		MaxAngularVelocity:   c.MaxTurnRateDeg * math.Pi / 180,
		AngularDamping:       c.TurnDamping,
		AngularSnapThreshold: c.TurnSnapThreshold,
	}
}

// DefaultDuration is how long an order stays in effect when none is given
func (c OrderConfig) DefaultDuration() time.Duration {
	return time.Duration(c.DefaultDurationMs) * time.Millisecond
}

// Preparation is the delay between accepting and applying an order
func (c OrderConfig) Preparation() time.Duration {
	return time.Duration(c.PreparationMs) * time.Millisecond
}

// FrameStep is the fixed simulation step
func (c LoopConfig) FrameStep() time.Duration {
	return time.Duration(c.FrameStepMs) * time.Millisecond
}

// MaxFrameStep caps a single step after a stall
func (c LoopConfig) MaxFrameStep() time.Duration {
	return time.Duration(c.MaxFrameStepMs) * time.Millisecond
}

// DefaultConfig returns a default simulation configuration
func DefaultConfig() *SimConfig {
	stats := entity.DefaultVesselStats()
	return &SimConfig{
		Arena: ArenaConfig{
			Width:  800,
			Height: 600,
			Margin: 10,
		},
		Vessel: VesselConfig{
			Width:             stats.Width,
			Height:            stats.Height,
			MaxSpeed:          stats.MaxSpeed,
			Acceleration:      stats.Acceleration,
			MaxTurnRateDeg:    45,
			TurnDamping:       stats.AngularDamping,
			TurnSnapThreshold: stats.AngularSnapThreshold,
			StartOffset:       80,
		},
		Orders: OrderConfig{
			DefaultDurationMs: 3000,
			PreparationMs:     2000,
		},
		Target: TargetConfig{
			Radius: 25,
			Speed:  30,
			Offset: 60,
		},
		Loop: LoopConfig{
			FrameStepMs:    16,
			MaxFrameStepMs: 100,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// setDefaults registers every key with viper so environment overrides apply
// even when the file omits them.
func setDefaults(v *viper.Viper, d *SimConfig) {
	v.SetDefault("arena.width", d.Arena.Width)
	v.SetDefault("arena.height", d.Arena.Height)
	v.SetDefault("arena.margin", d.Arena.Margin)

	v.SetDefault("vessel.width", d.Vessel.Width)
	v.SetDefault("vessel.height", d.Vessel.Height)
	v.SetDefault("vessel.maxSpeed", d.Vessel.MaxSpeed)
	v.SetDefault("vessel.acceleration", d.Vessel.Acceleration)
	v.SetDefault("vessel.maxTurnRateDeg", d.Vessel.MaxTurnRateDeg)
	v.SetDefault("vessel.turnDamping", d.Vessel.TurnDamping)
	v.SetDefault("vessel.turnSnapThreshold", d.Vessel.TurnSnapThreshold)
	v.SetDefault("vessel.startOffset", d.Vessel.StartOffset)

	v.SetDefault("orders.defaultDurationMs", d.Orders.DefaultDurationMs)
	v.SetDefault("orders.preparationMs", d.Orders.PreparationMs)

	v.SetDefault("target.radius", d.Target.Radius)
	v.SetDefault("target.speed", d.Target.Speed)
	v.SetDefault("target.offset", d.Target.Offset)

	v.SetDefault("loop.frameStepMs", d.Loop.FrameStepMs)
	v.SetDefault("loop.maxFrameStepMs", d.Loop.MaxFrameStepMs)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// LoadConfig loads a configuration from a JSON or YAML file, applies HELM_*
// environment overrides, and validates the result. An empty path loads the
// defaults plus environment overrides.
func LoadConfig(path string) (*SimConfig, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config SimConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// SaveConfig saves a configuration to a JSON file
func SaveConfig(config *SimConfig, path string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that every physical constant is usable
func (c *SimConfig) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(c.Arena.Width > 0 && c.Arena.Height > 0, "arena size must be positive, got %gx%g", c.Arena.Width, c.Arena.Height)
	check(c.Arena.Margin >= 0, "arena.margin must not be negative, got %g", c.Arena.Margin)
	check(c.Vessel.Width > 0 && c.Vessel.Height > 0, "vessel size must be positive, got %gx%g", c.Vessel.Width, c.Vessel.Height)
	check(c.Arena.Width-2*c.Arena.Margin >= c.Vessel.Width && c.Arena.Height-2*c.Arena.Margin >= c.Vessel.Height,
		"vessel does not fit inside the arena margins")
	check(c.Vessel.MaxSpeed > 0, "vessel.maxSpeed must be positive, got %g", c.Vessel.MaxSpeed)
	check(c.Vessel.Acceleration > 0, "vessel.acceleration must be positive, got %g", c.Vessel.Acceleration)
	check(c.Vessel.MaxTurnRateDeg > 0, "vessel.maxTurnRateDeg must be positive, got %g", c.Vessel.MaxTurnRateDeg)
	check(c.Vessel.TurnDamping >= 0, "vessel.turnDamping must not be negative, got %g", c.Vessel.TurnDamping)
	check(c.Vessel.TurnSnapThreshold >= 0, "vessel.turnSnapThreshold must not be negative, got %g", c.Vessel.TurnSnapThreshold)
	check(c.Orders.DefaultDurationMs > 0, "orders.defaultDurationMs must be positive, got %d", c.Orders.DefaultDurationMs)
	check(c.Orders.PreparationMs >= 0, "orders.preparationMs must not be negative, got %d", c.Orders.PreparationMs)
	check(c.Target.Radius > 0, "target.radius must be positive, got %g", c.Target.Radius)
	check(c.Target.Speed >= 0, "target.speed must not be negative, got %g", c.Target.Speed)
	check(c.Loop.FrameStepMs > 0, "loop.frameStepMs must be positive, got %d", c.Loop.FrameStepMs)
	check(c.Loop.MaxFrameStepMs >= c.Loop.FrameStepMs, "loop.maxFrameStepMs must be at least loop.frameStepMs")

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
