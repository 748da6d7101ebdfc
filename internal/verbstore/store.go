// Package verbstore persists the site's verb records in a single JSON file.
// Every mutation writes a timestamped backup of the previous file before an
// atomic replace, so a bad write never destroys the only copy.
package verbstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrVerbNotFound reports that no record exists for the requested infinitive.
var ErrVerbNotFound = errors.New("verbstore: verb not found")

// Record is one verb entry. Conjugations map a tense name to its six person
// forms in the fixed yo/tú/él/nosotros/vosotros/ellos order.
type Record struct {
	Infinitive   string              `json:"infinitive"`
	Translation  string              `json:"translation,omitempty"`
	Group        string              `json:"group,omitempty"`
	Notes        string              `json:"notes,omitempty"`
	Conjugations map[string][]string `json:"conjugations,omitempty"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

type verbFile struct {
	Verbs []Record `json:"verbs"`
}

// Option customises a Store.
type Option func(*Store)

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBackupKeep sets how many backup files are retained per store file.
func WithBackupKeep(n int) Option {
	return func(s *Store) {
		if n >= 0 {
			s.backupKeep = n
		}
	}
}

// Store is a mutex-guarded CRUD layer over one verb file.
type Store struct {
	mu         sync.Mutex
	path       string
	backupKeep int
	logger     *zap.Logger
	now        func() time.Time
}

// New opens a store over the verb file at path. The file is created on the
// first mutation if it does not exist.
func New(path string, options ...Option) *Store {
	s := &Store{
		path:       path,
		backupKeep: 5,
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// List returns every record sorted by infinitive.
func (s *Store) List() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	sort.Slice(doc.Verbs, func(i, j int) bool {
		return doc.Verbs[i].Infinitive < doc.Verbs[j].Infinitive
	})
	return doc.Verbs, nil
}

// Get returns the record for an infinitive.
func (s *Store) Get(infinitive string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return Record{}, err
	}
	for _, rec := range doc.Verbs {
		if rec.Infinitive == infinitive {
			return rec, nil
		}
	}
	return Record{}, fmt.Errorf("verbstore: %q: %w", infinitive, ErrVerbNotFound)
}

// Put creates or replaces the record keyed by its infinitive and reports
// whether a new record was created.
func (s *Store) Put(rec Record) (bool, error) {
	rec.Infinitive = strings.TrimSpace(rec.Infinitive)
	if rec.Infinitive == "" {
		return false, errors.New("verbstore: infinitive is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return false, err
	}

	rec.UpdatedAt = s.now().UTC()
	created := true
	for i, existing := range doc.Verbs {
		if existing.Infinitive == rec.Infinitive {
			doc.Verbs[i] = rec
			created = false
			break
		}
	}
	if created {
		doc.Verbs = append(doc.Verbs, rec)
	}

	if err := s.write(doc); err != nil {
		return false, err
	}
	return created, nil
}

// Delete removes the record for an infinitive.
func (s *Store) Delete(infinitive string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}

	kept := doc.Verbs[:0]
	found := false
	for _, rec := range doc.Verbs {
		if rec.Infinitive == infinitive {
			found = true
			continue
		}
		kept = append(kept, rec)
	}
	if !found {
		return fmt.Errorf("verbstore: %q: %w", infinitive, ErrVerbNotFound)
	}
	doc.Verbs = kept
	return s.write(doc)
}

// Backups lists the on-disk backup files for the store, newest first.
func (s *Store) Backups() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backupFiles()
}

func (s *Store) read() (verbFile, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return verbFile{}, nil
	}
	if err != nil {
		s.logger.Error("verb file read failed", zap.String("path", s.path), zap.Error(err))
		return verbFile{}, fmt.Errorf("verbstore: read %s: %w", s.path, err)
	}

	var doc verbFile
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Error("verb file undecodable", zap.String("path", s.path), zap.Error(err))
		return verbFile{}, fmt.Errorf("verbstore: decode %s: %w", s.path, err)
	}
	return doc, nil
}

func (s *Store) write(doc verbFile) error {
	if err := s.backup(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("verbstore: encode: %w", err)
	}
	data = append(data, '\n')

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		s.logger.Error("verb file write failed", zap.String("path", tmp), zap.Error(err))
		return fmt.Errorf("verbstore: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("verbstore: replace %s: %w", s.path, err)
	}
	return nil
}

// backup copies the current file to path.<timestamp>.bak and prunes old
// copies beyond backupKeep.
func (s *Store) backup() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("verbstore: read for backup: %w", err)
	}

	name := fmt.Sprintf("%s.%s.bak", s.path, s.now().UTC().Format("20060102T150405.000000000"))
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return fmt.Errorf("verbstore: write backup %s: %w", name, err)
	}

	backups, err := s.backupFiles()
	if err != nil {
		return err
	}
	for i := s.backupKeep; i < len(backups); i++ {
		if err := os.Remove(backups[i]); err != nil {
			s.logger.Warn("backup prune failed", zap.String("path", backups[i]), zap.Error(err))
		}
	}
	return nil
}

func (s *Store) backupFiles() ([]string, error) {
	matches, err := filepath.Glob(s.path + ".*.bak")
	if err != nil {
		return nil, fmt.Errorf("verbstore: list backups: %w", err)
	}
	// Names embed a sortable UTC timestamp; newest first.
	sort.Sort(sort.Reverse(sort.StringSlice(matches)))
	return matches, nil
}
