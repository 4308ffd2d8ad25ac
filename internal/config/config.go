// Package config handles baker configuration loading and management.
package config

// Config holds all baker settings.
type Config struct {
	Bake    BakeConfig    `yaml:"bake"`
	Logging LoggingConfig `yaml:"logging"`
}

// BakeConfig holds the baking pipeline settings.
type BakeConfig struct {
	// Tolerance is the vertex welding error tolerance.
	Tolerance float32 `yaml:"tolerance"`

	// TextureDirSuffix is appended to the output basename to form the
	// texture directory next to the baked file.
	TextureDirSuffix string `yaml:"texture_dir_suffix"`

	// FallbackBaseColor is substituted into empty base color slots.
	// A 4-channel RGBA image.
	FallbackBaseColor string `yaml:"fallback_base_color"`

	// FallbackScalar is substituted into empty roughness and metalness
	// slots. A 1-channel grayscale image.
	FallbackScalar string `yaml:"fallback_scalar"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Bake: BakeConfig{
			Tolerance:         1e-5,
			TextureDirSuffix:  "-tex",
			FallbackBaseColor: "assets-src/rgba1111.png",
			FallbackScalar:    "assets-src/r1.png",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
