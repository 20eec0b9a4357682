package main

import (
	"os"

	"github.com/goccy/go-json"
)

func readConfig(filename string) (Config, error) {
	config := defaultConfig()
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, err
	}

	if err := json.Unmarshal(data, &config); err != nil {
		return defaultConfig(), err
	}
	return withDefaults(config), nil
}

func saveConfig(filename string, config Config) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// withDefaults fills fields a config file set to their zero value.
func withDefaults(config Config) Config {
	d := defaultConfig()
	fill := func(field *string, fallback string) {
		if *field == "" {
			*field = fallback
		}
	}
	fill(&config.BaseURL, d.BaseURL)
	fill(&config.StarshipsPath, d.StarshipsPath)
	fill(&config.EncountersPath, d.EncountersPath)
	fill(&config.BuilderPath, d.BuilderPath)
	fill(&config.SourceDir, d.SourceDir)
	fill(&config.StyleDir, d.StyleDir)
	fill(&config.BuildDir, d.BuildDir)
	fill(&config.StaticURL, d.StaticURL)
	fill(&config.ServeAddr, d.ServeAddr)
	fill(&config.DraftFile, d.DraftFile)
	if config.SearchDebounceMs <= 0 {
		config.SearchDebounceMs = d.SearchDebounceMs
	}
	return config
}
