package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/printemu/printemu/internal/gcode"
	"go.uber.org/zap"
)

// Entry describes one stored G-code file. Program is the analysis produced
// at ingest time; content is served separately so listings stay cheap.
type Entry struct {
	Name       string
	Size       int64
	UploadedAt time.Time
	Program    *gcode.Program
}

type file struct {
	entry   Entry
	content []byte
}

// Store is the volatile G-code store: a name-to-file map living in process
// memory. Nothing survives a restart, by requirement.
type Store struct {
	logger      *zap.Logger
	maxFileSize int64

	mu    sync.RWMutex
	files map[string]*file
}

func NewStore(logger *zap.Logger, maxFileSize int64) *Store {
	return &Store{
		logger:      logger,
		maxFileSize: maxFileSize,
		files:       make(map[string]*file),
	}
}

// Put stores content under name, replacing any previous file, and parses
// it immediately so every entry carries its analysis.
func (s *Store) Put(name string, content []byte) (Entry, error) {
	if name == "" {
		return Entry{}, fmt.Errorf("empty file name")
	}
	if s.maxFileSize > 0 && int64(len(content)) > s.maxFileSize {
		return Entry{}, fmt.Errorf("file %s exceeds size limit (%d > %d bytes)",
			name, len(content), s.maxFileSize)
	}

	prog := gcode.Parse(string(content))
	entry := Entry{
		Name:       name,
		Size:       int64(len(content)),
		UploadedAt: time.Now(),
		Program:    prog,
	}

	s.mu.Lock()
	s.files[name] = &file{entry: entry, content: content}
	s.mu.Unlock()

	s.logger.Info("File stored",
		zap.String("name", name),
		zap.Int("size", len(content)),
		zap.Int("segments", len(prog.Segments)),
		zap.Float64("printed_length", prog.PrintedLength))
	return entry, nil
}

// Get returns the entry for name.
func (s *Store) Get(name string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[name]
	if !ok {
		return Entry{}, false
	}
	return f.entry, true
}

// Content returns the raw bytes for name.
func (s *Store) Content(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[name]
	if !ok {
		return nil, false
	}
	return f.content, true
}

// List returns all entries sorted by name.
func (s *Store) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]Entry, 0, len(s.files))
	for _, f := range s.files {
		entries = append(entries, f.entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// Delete removes name from the store.
func (s *Store) Delete(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[name]; !ok {
		return false
	}
	delete(s.files, name)
	s.logger.Info("File deleted", zap.String("name", name))
	return true
}

// Count returns the number of stored files.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}
