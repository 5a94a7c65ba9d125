package searchproperties

import "time"

type Config struct {
	Timeout time.Duration
}

// LoadConfig leaves headroom over the invoke and poll windows of one search.
func LoadConfig() *Config {
	return &Config{
		Timeout: 11 * time.Minute,
	}
}
