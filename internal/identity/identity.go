// Package identity abstracts the persistent device-local slot holding
// the anonymous user id of the legacy mode.
package identity

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Provider reads and writes the device's stored user identity. An empty
// Get result means no identity has been stored yet.
type Provider interface {
	Get() (string, error)
	Set(id string) error
}

// FileProvider keeps the identity in a plain file under the data
// directory, the closest server-side analog to browser local storage.
type FileProvider struct {
	path string
	mu   sync.Mutex
}

func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

func (p *FileProvider) Get() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	data, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read identity file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (p *FileProvider) Set(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		return fmt.Errorf("create identity directory: %w", err)
	}
	if err := os.WriteFile(p.path, []byte(id+"\n"), 0600); err != nil {
		return fmt.Errorf("write identity file: %w", err)
	}
	return nil
}

// MemoryProvider is an in-memory Provider for tests.
type MemoryProvider struct {
	mu sync.Mutex
	id string
}

func (p *MemoryProvider) Get() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.id, nil
}

func (p *MemoryProvider) Set(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.id = id
	return nil
}
