package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server    ServerSettings   `json:"server"`
	Providers ProviderSettings `json:"providers"`
	Cache     CacheSettings    `json:"cache"`
	Database  DatabaseSettings `json:"database"`
	Auth      AuthSettings     `json:"auth"`
	Log       LogSettings      `json:"log"`
}

type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// ProviderSettings configures the four upstream providers. The enrichment
// order is fixed (OMDb before TMDB); only keys and base URLs vary per
// deployment.
type ProviderSettings struct {
	YTSBaseURL    string `json:"ytsBaseUrl"`
	APIBayBaseURL string `json:"apibayBaseUrl"`
	OMDBAPIKey    string `json:"omdbApiKey"`
	TMDBAPIKey    string `json:"tmdbApiKey"`
}

type CacheSettings struct {
	CatalogTTLHours    int `json:"catalogTtlHours"`
	EnrichmentTTLHours int `json:"enrichmentTtlHours"`
	SearchTTLHours     int `json:"searchTtlHours"`
}

type DatabaseSettings struct {
	Path string `json:"path"`
}

// AuthSettings holds the boundary contract with the external auth service:
// the shared secret used to verify its bearer tokens.
type AuthSettings struct {
	JWTSecret string `json:"jwtSecret"`
}

type LogSettings struct {
	File       string `json:"file"`
	MaxSize    int    `json:"maxSize"`
	MaxAge     int    `json:"maxAge"`
	MaxBackups int    `json:"maxBackups"`
	Compress   bool   `json:"compress"`
}

// DefaultSettings returns the configuration written on first run.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Providers: ProviderSettings{
			YTSBaseURL:    "https://yts.lt",
			APIBayBaseURL: "https://apibay.org",
		},
		Cache: CacheSettings{
			CatalogTTLHours:    168, // 7 days
			EnrichmentTTLHours: 168,
			SearchTTLHours:     168,
		},
		Database: DatabaseSettings{
			Path: filepath.Join("data", "cinebay.db"),
		},
		Log: LogSettings{
			MaxSize:    20,
			MaxAge:     14,
			MaxBackups: 3,
		},
	}
}

// Manager loads and persists settings.json.
type Manager struct {
	mu   sync.Mutex
	path string
}

func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

// Load reads settings.json from disk or creates defaults if missing.
// Environment variables override persisted secrets so API keys never have
// to live in the file.
func (m *Manager) Load() (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		defaults := DefaultSettings()
		if err := m.saveLocked(defaults); err != nil {
			return Settings{}, err
		}
		return applyEnvOverrides(defaults), nil
	}

	f, err := os.Open(m.path)
	if err != nil {
		return Settings{}, err
	}
	defer f.Close()

	var s Settings
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return Settings{}, err
	}

	// Backfill defaults when the config predates a setting.
	defaults := DefaultSettings()
	if strings.TrimSpace(s.Providers.YTSBaseURL) == "" {
		s.Providers.YTSBaseURL = defaults.Providers.YTSBaseURL
	}
	if strings.TrimSpace(s.Providers.APIBayBaseURL) == "" {
		s.Providers.APIBayBaseURL = defaults.Providers.APIBayBaseURL
	}
	if s.Cache.CatalogTTLHours <= 0 {
		s.Cache.CatalogTTLHours = defaults.Cache.CatalogTTLHours
	}
	if s.Cache.EnrichmentTTLHours <= 0 {
		s.Cache.EnrichmentTTLHours = defaults.Cache.EnrichmentTTLHours
	}
	if s.Cache.SearchTTLHours <= 0 {
		s.Cache.SearchTTLHours = defaults.Cache.SearchTTLHours
	}
	if strings.TrimSpace(s.Database.Path) == "" {
		s.Database.Path = defaults.Database.Path
	}
	if s.Server.Port == 0 {
		s.Server.Port = defaults.Server.Port
	}
	if strings.TrimSpace(s.Server.Host) == "" {
		s.Server.Host = defaults.Server.Host
	}

	return applyEnvOverrides(s), nil
}

// Save writes the settings atomically.
func (m *Manager) Save(s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked(s)
}

func (m *Manager) saveLocked(s Settings) error {
	if err := m.ensureDirLocked(); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, m.path)
}

func (m *Manager) ensureDirLocked() error {
	dir := filepath.Dir(m.path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func applyEnvOverrides(s Settings) Settings {
	if v := strings.TrimSpace(os.Getenv("OMDB_API_KEY")); v != "" {
		s.Providers.OMDBAPIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("TMDB_API_KEY")); v != "" {
		s.Providers.TMDBAPIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("JWT_SECRET")); v != "" {
		s.Auth.JWTSecret = v
	}
	return s
}
