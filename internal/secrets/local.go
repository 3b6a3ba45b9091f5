package secrets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/localstack-dotnet/badge-smith-sub002/internal/observability"
)

// LocalProvider implements Provider using a single YAML file mapping
// repository paths to secrets:
//
//	github/org1/repo1: "shared-secret-value"
//	github/org2/repo2: "another-secret"
//
// The file is watched with fsnotify and reloaded on change, so secret
// rotation does not require a restart.
type LocalProvider struct {
	path   string
	logger observability.Logger

	mu      sync.RWMutex
	entries map[string]string

	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewLocalProvider creates a local file secrets provider and starts
// watching the file for changes.
func NewLocalProvider(path string, logger observability.Logger) (*LocalProvider, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: secrets file path is required", ErrProviderNotConfigured)
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}

	p := &LocalProvider{
		path:   absPath,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	if err := p.reload(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Watch the directory rather than the file: editors and config
	// mounts replace the file, which would drop a file-level watch.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch secrets directory: %w", err)
	}
	p.watcher = watcher

	go p.watchLoop()

	return p, nil
}

// Type returns the provider type.
func (p *LocalProvider) Type() ProviderType {
	return ProviderTypeLocal
}

// GetSecret retrieves a secret from the loaded file.
func (p *LocalProvider) GetSecret(_ context.Context, path string) (*Secret, error) {
	start := time.Now()

	if path == "" {
		recordOperation(p.Type(), "get", time.Since(start), ErrInvalidPath)
		return nil, ErrInvalidPath
	}

	p.mu.RLock()
	value, ok := p.entries[path]
	p.mu.RUnlock()

	if !ok {
		recordOperation(p.Type(), "get", time.Since(start), ErrSecretNotFound)
		return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, path)
	}

	recordOperation(p.Type(), "get", time.Since(start), nil)

	return &Secret{
		Path:  path,
		Value: []byte(value),
		Metadata: map[string]string{
			"source": "local",
			"file":   p.path,
		},
	}, nil
}

// HealthCheck verifies the secrets file is still readable.
func (p *LocalProvider) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.path); err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return nil
}

// Close stops the watcher.
func (p *LocalProvider) Close() error {
	p.stopOnce.Do(func() { close(p.stopCh) })
	if p.watcher != nil {
		return p.watcher.Close()
	}
	return nil
}

// reload reads and parses the secrets file, replacing the entry map.
func (p *LocalProvider) reload() error {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("failed to read secrets file %s: %w", p.path, err)
	}

	entries := make(map[string]string)
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to parse secrets file %s: %w", p.path, err)
	}

	p.mu.Lock()
	p.entries = entries
	p.mu.Unlock()

	p.logger.Info("secrets file loaded",
		observability.String("file", p.path),
		observability.Int("entries", len(entries)))

	return nil
}

// watchLoop reloads the file on write/create events, debounced so a
// burst of editor events triggers a single reload.
func (p *LocalProvider) watchLoop() {
	const debounce = 100 * time.Millisecond

	var timer *time.Timer
	for {
		select {
		case <-p.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if event.Name != p.path {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				if err := p.reload(); err != nil {
					p.logger.Error("secrets file reload failed",
						observability.Error(err))
				}
			})
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.logger.Warn("secrets file watcher error",
				observability.Error(err))
		}
	}
}
