package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Token   string `toml:"token" mapstructure:"token"`
	Host    string `toml:"host" mapstructure:"host"`
	Port    string `toml:"port" mapstructure:"port"`
	Libonnx string `toml:"libonnx" mapstructure:"libonnx"`

	ModelPath  string `toml:"model_path" mapstructure:"model_path"`
	ModelUrl   string `toml:"model_url" mapstructure:"model_url"`
	LabelsPath string `toml:"labels_path" mapstructure:"labels_path"`

	ImageWidth    int    `toml:"image_width" mapstructure:"image_width"`
	ImageHeight   int    `toml:"image_height" mapstructure:"image_height"`
	Normalization string `toml:"normalization" mapstructure:"normalization"`

	// Probability vectors summing above this are treated as unnormalized.
	RenormalizeAbove float64 `toml:"renormalize_above" mapstructure:"renormalize_above"`

	FetchTimeout    Duration `toml:"fetch_timeout" mapstructure:"fetch_timeout"`
	DownloadTimeout Duration `toml:"download_timeout" mapstructure:"download_timeout"`
	MaxImageBytes   int64    `toml:"max_image_bytes" mapstructure:"max_image_bytes"`
	MaxImagePixels  int64    `toml:"max_image_pixels" mapstructure:"max_image_pixels"`
}

// Duration reads "10s"-style strings from TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func Default() Config {
	return Config{
		Host:             "0.0.0.0",
		Port:             "5000",
		ModelPath:        "plant_species.onnx",
		ModelUrl:         "https://huggingface.co/cmeneses99/IA_Detection/resolve/main/plant_species.onnx?download=true",
		LabelsPath:       "labels.json",
		ImageWidth:       256,
		ImageHeight:      256,
		Normalization:    "efficientnet",
		RenormalizeAbove: 1.1,
		FetchTimeout:     Duration{10 * time.Second},
		DownloadTimeout:  Duration{30 * time.Second},
		MaxImageBytes:    20 << 20,
		MaxImagePixels:   89478485,
	}
}

var (
	cfg      = Default()
	loadOnce sync.Once
)

func C() Config {
	loadOnce.Do(func() {
		loaded, err := Load("config.toml")
		if err != nil {
			panic(err)
		}
		cfg = loaded
	})
	return cfg
}

// Load reads path over the defaults (a missing file is not an error) and
// applies environment overrides.
func Load(path string) (Config, error) {
	c := Default()
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	applyEnv(&c)
	return c, nil
}

func applyEnv(c *Config) {
	for name, dst := range map[string]*string{
		"MODEL_PATH":  &c.ModelPath,
		"MODEL_URL":   &c.ModelUrl,
		"LABELS_PATH": &c.LabelsPath,
		"HOST":        &c.Host,
		"PORT":        &c.Port,
		"LIBONNX":     &c.Libonnx,
		"API_TOKEN":   &c.Token,
	} {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*dst = v
		}
	}
}
