package config

// Overrides holds settings supplied on the command line. Zero values are
// unset.
type Overrides struct {
	RegistryURL string
	MaxRounds   int
}

// Resolve applies precedence: CLI flags > environment > config file >
// defaults. The first three are merged by the Loader already.
func Resolve(cfg *Config, o Overrides) *Config {
	resolved := *cfg
	if o.RegistryURL != "" {
		resolved.Registry.URL = o.RegistryURL
	}
	if o.MaxRounds > 0 {
		resolved.Input.MaxRounds = o.MaxRounds
	}
	return &resolved
}
