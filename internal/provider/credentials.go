package provider

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"go.yaml.in/yaml/v3"
)

// Credentials is the operator-rotatable provider configuration. It lives in a
// YAML file, not in process-start-only env vars, so a token rotation takes
// effect on the next evaluation cycle without a restart.
type Credentials struct {
	AccessToken   string `yaml:"access_token"`
	ChannelSecret string `yaml:"channel_secret"`
	Endpoint      string `yaml:"endpoint"`
}

func (c Credentials) validate() error {
	if strings.TrimSpace(c.AccessToken) == "" {
		return fmt.Errorf("credentials: access_token is empty")
	}
	if strings.TrimSpace(c.Endpoint) == "" {
		return fmt.Errorf("credentials: endpoint is empty")
	}
	return nil
}

// CredentialStore holds the last good credentials snapshot and refreshes it
// when the backing file changes. A bad rewrite keeps the previous snapshot.
type CredentialStore struct {
	path string
	log  zerolog.Logger

	mu    sync.RWMutex
	creds Credentials
}

func NewCredentialStore(path string, log zerolog.Logger) *CredentialStore {
	return &CredentialStore{path: path, log: log}
}

// Load reads and validates the file, committing the snapshot on success.
func (s *CredentialStore) Load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var creds Credentials
	if err := yaml.Unmarshal(b, &creds); err != nil {
		return fmt.Errorf("credentials: %w", err)
	}
	if err := creds.validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.creds = creds
	s.mu.Unlock()
	return nil
}

// Snapshot returns the current credentials. Callers must not retain the
// snapshot across cycles; fetch a fresh one at the start of each.
func (s *CredentialStore) Snapshot() Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds
}

// Watch reloads the store whenever the file is rewritten. It blocks until ctx
// is done. Editors often replace files via rename, so Create events on the
// watched path trigger a reload too.
func (s *CredentialStore) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(s.path); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := s.Load(); err != nil {
				s.log.Error().Err(err).Msg("credentials reload failed, keeping previous snapshot")
				continue
			}
			s.log.Info().Msg("provider credentials reloaded")
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn().Err(err).Msg("credentials watcher error")
		}
	}
}
