package handlers

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// ViewCounter is a file-backed page view counter. The count survives
// restarts; concurrent increments are serialized by the mutex.
type ViewCounter struct {
	path string
	mu   sync.Mutex
}

// NewViewCounter opens the counter file, creating it at zero if missing.
func NewViewCounter(path string) (*ViewCounter, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err == nil {
		_, werr := f.WriteString("0")
		cerr := f.Close()
		if werr != nil {
			return nil, fmt.Errorf("failed to initialize view count file: %w", werr)
		}
		if cerr != nil {
			return nil, fmt.Errorf("failed to close view count file: %w", cerr)
		}
	} else if !os.IsExist(err) {
		return nil, fmt.Errorf("failed to create view count file: %w", err)
	}
	return &ViewCounter{path: path}, nil
}

// Increment bumps the counter and returns the new value.
func (v *ViewCounter) Increment() (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	count, err := v.read()
	if err != nil {
		return 0, err
	}
	count++
	if err := os.WriteFile(v.path, []byte(strconv.Itoa(count)), 0o644); err != nil {
		return 0, fmt.Errorf("failed to write view count: %w", err)
	}
	return count, nil
}

// Current returns the counter without changing it.
func (v *ViewCounter) Current() (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.read()
}

func (v *ViewCounter) read() (int, error) {
	data, err := os.ReadFile(v.path)
	if err != nil {
		return 0, fmt.Errorf("failed to read view count: %w", err)
	}
	count, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("view count file is corrupt: %w", err)
	}
	return count, nil
}
