// Package config loads and hot-reloads the persisted AppConfig, overlaying
// environment variables and an optional .env file the way the teacher's
// config loader does, and watches the backing file for external edits.
package config

import (
	"crypto/rand"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/rcourtman/liteclaw/internal/planmodel"
)

const defaultAuthTokenEnvA = "LITECLAW_AUTH_TOKEN"
const defaultAuthTokenEnvB = "LITECLAW_API_TOKEN"
const dataDirEnv = "LITECLAW_DATA_DIR"
const portEnv = "LITECLAW_PORT"

// Env is the resolved process environment this server bootstraps from.
type Env struct {
	AuthToken string
	DataDir   string
	Port      string
}

// LoadEnv reads a .env file (if present) into the process environment, then
// resolves the auth token, data dir, and port the way the reference backend
// does: LITECLAW_AUTH_TOKEN wins over LITECLAW_API_TOKEN, LITECLAW_DATA_DIR
// defaults to "./.liteclaw-data", and the token defaults to a random value
// if neither env var is set.
func LoadEnv() Env {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to load .env file")
	}

	token := os.Getenv(defaultAuthTokenEnvA)
	if token == "" {
		token = os.Getenv(defaultAuthTokenEnvB)
	}
	if token == "" {
		token = randomToken()
		log.Warn().Msg("no auth token configured; generated a random one for this process lifetime")
	}

	dataDir := os.Getenv(dataDirEnv)
	if dataDir == "" {
		dataDir = "./.liteclaw-data"
	}

	port := os.Getenv(portEnv)
	if port == "" {
		port = "8765"
	}

	return Env{AuthToken: token, DataDir: dataDir, Port: port}
}

func randomToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	const hex = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hex[c>>4]
		out[i*2+1] = hex[c&0x0f]
	}
	return string(out)
}

// Store holds the live AppConfig, guarded by a mutex so readers never see a
// torn struct while a reload is in flight.
type Store struct {
	mu       sync.RWMutex
	path     string
	current  planmodel.AppConfig
	watcher  *fsnotify.Watcher
	stopOnce sync.Once
	stopCh   chan struct{}
}

// Path returns the on-disk location of config.json under dataDir.
func Path(dataDir string) string {
	return filepath.Join(dataDir, "config.json")
}

// defaultConfig is written the first time a data dir is initialized.
func defaultConfig() planmodel.AppConfig {
	return planmodel.AppConfig{
		AllowedFolders: []string{},
		Shell:          planmodel.ShellConfig{Enabled: true},
	}
}

// NewStore loads config.json from dataDir, writing a default file if one
// doesn't exist yet, and starts a debounced fsnotify watch on it.
func NewStore(dataDir string) (*Store, error) {
	path := Path(dataDir)
	if err := ensureDefaultConfig(path); err != nil {
		return nil, err
	}

	s := &Store{path: path, stopCh: make(chan struct{})}
	if err := s.Reload(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn().Err(err).Msg("config file watch disabled: fsnotify unavailable")
		return s, nil
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		log.Warn().Err(err).Msg("config file watch disabled: could not watch data dir")
		_ = watcher.Close()
		return s, nil
	}
	s.watcher = watcher
	go s.watchLoop()
	return s, nil
}

func ensureDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return writeAtomic(path, defaultConfig())
}

func writeAtomic(path string, cfg planmodel.AppConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Reload re-reads config.json from disk into the live snapshot.
func (s *Store) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var cfg planmodel.AppConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return err
	}
	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()
	log.Info().Str("path", s.path).Msg("config reloaded")
	return nil
}

// Snapshot returns a deep copy of the current config so callers can't
// mutate the live state through their returned slice headers.
func (s *Store) Snapshot() planmodel.AppConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	folders := make([]string, len(s.current.AllowedFolders))
	copy(folders, s.current.AllowedFolders)
	return planmodel.AppConfig{
		AllowedFolders: folders,
		Shell:          s.current.Shell,
	}
}

// Save persists cfg to disk atomically and updates the live snapshot.
func (s *Store) Save(cfg planmodel.AppConfig) error {
	if err := writeAtomic(s.path, cfg); err != nil {
		return err
	}
	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()
	return nil
}

func (s *Store) watchLoop() {
	const debounce = 200 * time.Millisecond
	var timer *time.Timer
	for {
		select {
		case <-s.stopCh:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(s.path) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				if err := s.Reload(); err != nil {
					log.Warn().Err(err).Msg("config hot-reload failed")
				}
			})
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("config watcher error")
		}
	}
}

// Close stops the file watcher.
func (s *Store) Close() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if s.watcher != nil {
			_ = s.watcher.Close()
		}
	})
}
