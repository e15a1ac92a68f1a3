package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"wedding-rsvp/internal/models"
)

// FileStore keeps the guest list in memory and mirrors it to a JSON file.
// An empty path keeps it in memory only.
type FileStore struct {
	mu     sync.RWMutex
	guests []models.Guest
	nextID int64
	file   string
}

// NewFileStore creates a new file store, loading filePath if it exists
func NewFileStore(filePath string) (*FileStore, error) {
	s := &FileStore{
		guests: make([]models.Guest, 0),
		nextID: 1,
		file:   filePath,
	}

	if filePath == "" {
		return s, nil
	}

	// Load existing data if file exists
	if _, err := os.Stat(filePath); err == nil {
		if err := s.Load(); err != nil {
			return nil, fmt.Errorf("failed to load storage: %w", err)
		}
	}

	return s, nil
}

// FindByName returns guests whose name contains fragment
func (s *FileStore) FindByName(_ context.Context, fragment string) ([]models.Guest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneAll(filterByName(s.guests, fragment)), nil
}

// Get retrieves a guest by id
func (s *FileStore) Get(_ context.Context, id int64) (*models.Guest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, g := range s.guests {
		if g.ID == id {
			c := g.Clone()
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

// Insert appends a new guest with the next free id
func (s *FileStore) Insert(_ context.Context, guest *models.Guest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := guest.Clone()
	row.ID = s.nextID
	s.guests = append(s.guests, row)
	if err := s.save(); err != nil {
		s.guests = s.guests[:len(s.guests)-1]
		return err
	}

	s.nextID++
	guest.ID = row.ID
	return nil
}

// Update applies a partial update to one guest
func (s *FileStore) Update(_ context.Context, id int64, u Update) (*models.Guest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, g := range s.guests {
		if g.ID != id {
			continue
		}
		updated := g.Clone()
		u.apply(&updated)
		s.guests[i] = updated
		if err := s.save(); err != nil {
			s.guests[i] = g
			return nil, err
		}
		c := updated.Clone()
		return &c, nil
	}
	return nil, ErrNotFound
}

// List returns guests filtered by response, newest response first
func (s *FileStore) List(_ context.Context, filter ListFilter) ([]models.Guest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Guest, 0, len(s.guests))
	for _, g := range s.guests {
		if filter.matches(&g) {
			result = append(result, g.Clone())
		}
	}
	sortForListing(result)
	return result, nil
}

// Close flushes the guest list to disk
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save writes the guests to file. Callers hold the write lock.
func (s *FileStore) save() error {
	if s.file == "" {
		return nil
	}

	data, err := json.MarshalIndent(s.guests, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(s.file)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(s.file, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// Load loads guests from file
func (s *FileStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.file)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	s.guests = make([]models.Guest, 0)
	s.nextID = 1
	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, &s.guests); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}

	for _, g := range s.guests {
		if g.ID >= s.nextID {
			s.nextID = g.ID + 1
		}
	}
	return nil
}

func cloneAll(guests []models.Guest) []models.Guest {
	result := make([]models.Guest, len(guests))
	for i, g := range guests {
		result[i] = g.Clone()
	}
	return result
}
