// Package editor reloads applied files into a running Neovim instance,
// so buffers reflect what landed on disk. Sync is best-effort: without a
// listening instance it does nothing.
package editor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/neovim/go-client/nvim"
)

// Manager handles the connection to a Neovim instance.
type Manager struct {
	nvim *nvim.Nvim
}

// Connect dials the instance named by NVIM_LISTEN_ADDRESS, if any.
func Connect() (*Manager, error) {
	addr := os.Getenv("NVIM_LISTEN_ADDRESS")
	if addr == "" {
		return nil, nil
	}
	v, err := nvim.Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nvim at %s: %w", addr, err)
	}
	return &Manager{nvim: v}, nil
}

// Close disconnects from Neovim.
func (m *Manager) Close() {
	if m != nil && m.nvim != nil {
		m.nvim.Close()
	}
}

// Reload opens each file and re-reads it from disk, returning the paths
// that could not be reloaded.
func (m *Manager) Reload(paths []string) (failed []string) {
	if m == nil || m.nvim == nil {
		return nil
	}
	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			failed = append(failed, path)
			continue
		}
		b := m.nvim.NewBatch()
		b.Command(fmt.Sprintf("edit! %s", absPath))
		b.Command("checktime")
		if err := b.Execute(); err != nil {
			failed = append(failed, path)
		}
	}
	return failed
}
