// Package config loads and validates the loop configuration from a YAML
// file, BOARDLOOP_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the environment variable prefix, e.g. BOARDLOOP_DEMO.
const EnvPrefix = "BOARDLOOP"

// Demo names.
const (
	DemoBlink     = "blink"
	DemoRotation  = "rotation"
	DemoCounter   = "counter"
	DemoMultitask = "multitask"
	DemoMotion    = "motion"
)

// Demos lists every demo name in display order.
var Demos = []string{DemoBlink, DemoRotation, DemoCounter, DemoMultitask, DemoMotion}

var (
	ErrZeroInterval = errors.New("interval must be greater than zero")
	ErrUnknownDemo  = errors.New("unknown demo")
)

// Config is the complete loop configuration.
type Config struct {
	Demo string `mapstructure:"demo" yaml:"demo"`
	// Sim runs against simulated peripherals instead of hardware.
	Sim bool `mapstructure:"sim" yaml:"sim"`
	// IdleMs is the pause between scheduler polls.
	IdleMs uint32 `mapstructure:"idle_ms" yaml:"idle_ms"`

	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Intervals IntervalConfig  `mapstructure:"intervals" yaml:"intervals"`
	Debounce  DebounceConfig  `mapstructure:"debounce" yaml:"debounce"`
	Counter   CounterConfig   `mapstructure:"counter" yaml:"counter"`
	Pattern   PatternConfig   `mapstructure:"pattern" yaml:"pattern"`
	Motion    MotionConfig    `mapstructure:"motion" yaml:"motion"`
	GPIO      GPIOConfig      `mapstructure:"gpio" yaml:"gpio"`
	Analog    AnalogConfig    `mapstructure:"analog" yaml:"analog"`
	Display   DisplayConfig   `mapstructure:"display" yaml:"display"`
	Serial    SerialConfig    `mapstructure:"serial" yaml:"serial"`
	MQTT      MQTTConfig      `mapstructure:"mqtt" yaml:"mqtt"`
	HTTP      HTTPConfig      `mapstructure:"http" yaml:"http"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// IntervalConfig holds the period of every task, in milliseconds.
type IntervalConfig struct {
	BlinkMs  uint32 `mapstructure:"blink_ms" yaml:"blink_ms"`
	RotateMs uint32 `mapstructure:"rotate_ms" yaml:"rotate_ms"`
	ToggleMs uint32 `mapstructure:"toggle_ms" yaml:"toggle_ms"`
	SampleMs uint32 `mapstructure:"sample_ms" yaml:"sample_ms"`
	MotionMs uint32 `mapstructure:"motion_ms" yaml:"motion_ms"`
	SensorMs uint32 `mapstructure:"sensor_ms" yaml:"sensor_ms"`
	StatsMs  uint32 `mapstructure:"stats_ms" yaml:"stats_ms"`
	StatusMs uint32 `mapstructure:"status_ms" yaml:"status_ms"`
	// HeartbeatMs of 0 disables the heartbeat task.
	HeartbeatMs uint32 `mapstructure:"heartbeat_ms" yaml:"heartbeat_ms"`
}

type DebounceConfig struct {
	SettleMs uint32 `mapstructure:"settle_ms" yaml:"settle_ms"`
}

type CounterConfig struct {
	FlashMs uint32 `mapstructure:"flash_ms" yaml:"flash_ms"`
}

type PatternConfig struct {
	Initial uint8 `mapstructure:"initial" yaml:"initial"`
}

type MotionConfig struct {
	ThresholdCounts uint16 `mapstructure:"threshold_counts" yaml:"threshold_counts"`
	LowBand         uint16 `mapstructure:"low_band" yaml:"low_band"`
	HighBand        uint16 `mapstructure:"high_band" yaml:"high_band"`
	ChannelX        int    `mapstructure:"channel_x" yaml:"channel_x"`
	ChannelY        int    `mapstructure:"channel_y" yaml:"channel_y"`
	ChannelZ        int    `mapstructure:"channel_z" yaml:"channel_z"`
}

type GPIOConfig struct {
	Chip            string `mapstructure:"chip" yaml:"chip"`
	LEDLines        []int  `mapstructure:"led_lines" yaml:"led_lines"`
	ButtonLines     []int  `mapstructure:"button_lines" yaml:"button_lines"`
	LEDActiveLow    bool   `mapstructure:"led_active_low" yaml:"led_active_low"`
	ButtonActiveLow bool   `mapstructure:"button_active_low" yaml:"button_active_low"`
	// Button is the index into ButtonLines the demos read.
	Button int `mapstructure:"button" yaml:"button"`
}

type AnalogConfig struct {
	Device string `mapstructure:"device" yaml:"device"`
	Bits   uint   `mapstructure:"bits" yaml:"bits"`
}

type DisplayConfig struct {
	Width  int16 `mapstructure:"width" yaml:"width"`
	Height int16 `mapstructure:"height" yaml:"height"`
}

type SerialConfig struct {
	// Path of the serial device; empty writes to stdout.
	Path string `mapstructure:"path" yaml:"path"`
}

type MQTTConfig struct {
	// Broker URL; empty disables publishing.
	Broker     string `mapstructure:"broker" yaml:"broker"`
	ClientID   string `mapstructure:"client_id" yaml:"client_id"`
	BufferSize int    `mapstructure:"buffer_size" yaml:"buffer_size"`
}

type HTTPConfig struct {
	// Addr of the status server; empty disables it.
	Addr   string `mapstructure:"addr" yaml:"addr"`
	PushMs uint32 `mapstructure:"push_ms" yaml:"push_ms"`
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("demo", DemoRotation)
	v.SetDefault("sim", false)
	v.SetDefault("idle_ms", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("intervals.blink_ms", 500)
	v.SetDefault("intervals.rotate_ms", 500)
	v.SetDefault("intervals.toggle_ms", 100)
	v.SetDefault("intervals.sample_ms", 10)
	v.SetDefault("intervals.motion_ms", 200)
	v.SetDefault("intervals.sensor_ms", 500)
	v.SetDefault("intervals.stats_ms", 1000)
	v.SetDefault("intervals.status_ms", 250)
	v.SetDefault("intervals.heartbeat_ms", 15*60*1000)

	v.SetDefault("debounce.settle_ms", 50)
	v.SetDefault("counter.flash_ms", 200)
	v.SetDefault("pattern.initial", 0x7F)

	v.SetDefault("motion.threshold_counts", 50)
	v.SetDefault("motion.low_band", 300)
	v.SetDefault("motion.high_band", 700)
	v.SetDefault("motion.channel_x", 2)
	v.SetDefault("motion.channel_y", 3)
	v.SetDefault("motion.channel_z", 4)

	v.SetDefault("gpio.chip", "gpiochip0")
	v.SetDefault("gpio.led_lines", []int{17, 27, 22, 5, 6, 13, 19, 26})
	v.SetDefault("gpio.button_lines", []int{20, 21})
	v.SetDefault("gpio.led_active_low", false)
	v.SetDefault("gpio.button_active_low", true)
	v.SetDefault("gpio.button", 0)

	v.SetDefault("analog.device", "/sys/bus/iio/devices/iio:device0")
	v.SetDefault("analog.bits", 10)

	v.SetDefault("display.width", 128)
	v.SetDefault("display.height", 64)

	v.SetDefault("serial.path", "")

	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", "boardloop")
	v.SetDefault("mqtt.buffer_size", 100)

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.push_ms", 500)
}

// NewViper returns a viper instance with defaults and environment binding.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional YAML file at path into v and returns the
// validated configuration.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the validated default configuration, with environment
// overrides applied.
func Default() (*Config, error) {
	return Load(NewViper(), "")
}

// Validate rejects configurations the loop cannot run deterministically.
func (c *Config) Validate() error {
	if !knownDemo(c.Demo) {
		return fmt.Errorf("%w %q (want one of %s)", ErrUnknownDemo, c.Demo, strings.Join(Demos, ", "))
	}
	if c.IdleMs == 0 {
		return fmt.Errorf("idle_ms: %w", ErrZeroInterval)
	}

	intervals := []struct {
		key string
		ms  uint32
	}{
		{"intervals.blink_ms", c.Intervals.BlinkMs},
		{"intervals.rotate_ms", c.Intervals.RotateMs},
		{"intervals.toggle_ms", c.Intervals.ToggleMs},
		{"intervals.sample_ms", c.Intervals.SampleMs},
		{"intervals.motion_ms", c.Intervals.MotionMs},
		{"intervals.sensor_ms", c.Intervals.SensorMs},
		{"intervals.stats_ms", c.Intervals.StatsMs},
		{"intervals.status_ms", c.Intervals.StatusMs},
		{"counter.flash_ms", c.Counter.FlashMs},
		{"http.push_ms", c.HTTP.PushMs},
	}
	for _, iv := range intervals {
		if iv.ms == 0 {
			return fmt.Errorf("%s: %w", iv.key, ErrZeroInterval)
		}
	}

	m := c.Motion
	if m.LowBand >= m.HighBand {
		return fmt.Errorf("motion: low_band (%d) must be below high_band (%d)", m.LowBand, m.HighBand)
	}
	if m.HighBand > 1023 || m.ThresholdCounts > 1023 {
		return fmt.Errorf("motion: bands and threshold must be within the 10-bit ADC range")
	}
	if m.ChannelX < 0 || m.ChannelY < 0 || m.ChannelZ < 0 {
		return fmt.Errorf("motion: channels must not be negative")
	}

	if len(c.GPIO.LEDLines) != 8 {
		return fmt.Errorf("gpio.led_lines: need 8 lines, got %d", len(c.GPIO.LEDLines))
	}
	if c.GPIO.Button < 0 || c.GPIO.Button >= len(c.GPIO.ButtonLines) {
		return fmt.Errorf("gpio.button: index %d out of range for %d button lines", c.GPIO.Button, len(c.GPIO.ButtonLines))
	}

	if c.Analog.Bits == 0 || c.Analog.Bits > 24 {
		return fmt.Errorf("analog.bits: %d out of range", c.Analog.Bits)
	}
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return fmt.Errorf("display: size must be positive")
	}
	if c.MQTT.BufferSize <= 0 {
		return fmt.Errorf("mqtt.buffer_size must be positive")
	}
	return nil
}

// YAML renders the configuration as a YAML document.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

func knownDemo(name string) bool {
	for _, d := range Demos {
		if d == name {
			return true
		}
	}
	return false
}
