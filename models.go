package main

// Config is the on-disk settings file. Zero fields fall back to
// defaultConfig when read.
type Config struct {
	BaseURL          string `json:"base_url"`
	StarshipsPath    string `json:"starships_path"`
	EncountersPath   string `json:"encounters_path"`
	BuilderPath      string `json:"builder_path"`
	SearchDebounceMs int    `json:"search_debounce_ms"`
	SourceDir        string `json:"source_dir"`
	StyleDir         string `json:"style_dir"`
	BuildDir         string `json:"build_dir"`
	StaticURL        string `json:"static_url"`
	ServeAddr        string `json:"serve_addr"`
	DraftFile        string `json:"draft_file"`
}

func defaultConfig() Config {
	return Config{
		BaseURL:          "http://localhost:8000",
		StarshipsPath:    "/encounters/api/starships",
		EncountersPath:   "/encounters/api/encounters/",
		BuilderPath:      "/encounters/builder/",
		SearchDebounceMs: 250,
		SourceDir:        "frontend/src",
		StyleDir:         "frontend/style",
		BuildDir:         "frontend/build",
		StaticURL:        "/collectstatic/",
		ServeAddr:        ":3000",
		DraftFile:        ".encounter-draft.msgpack",
	}
}
