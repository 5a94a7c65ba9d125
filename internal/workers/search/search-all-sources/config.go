package searchallsources

import "time"

type Config struct {
	MaxSearches int
	Timeout     time.Duration
}

func LoadConfig() *Config {
	return &Config{
		MaxSearches: 6,
		Timeout:     11 * time.Minute,
	}
}
