package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

const documentName = "database.json"

// ErrDuplicateCode is returned when inserting a code that already exists.
var ErrDuplicateCode = errors.New("duplicate code")

// ErrUnknownCode is returned when updating a code that does not exist.
var ErrUnknownCode = errors.New("unknown code")

type pdbSection struct {
	LastSynchronization string `json:"lastSynchronization"`
}

type document struct {
	PDB  pdbSection       `json:"pdb"`
	Data map[string]Entry `json:"data"`
}

// Store holds the registry document for the duration of one run. It is owned
// by a single caller; persistence is a full-document overwrite.
type Store struct {
	path string
	doc  document
}

// Open loads the registry document from the data directory, or initializes an
// empty registry when no document exists yet.
func Open(dataDir string) (*Store, error) {
	store := &Store{
		path: filepath.Join(dataDir, documentName),
		doc:  document{Data: map[string]Entry{}},
	}

	raw, err := os.ReadFile(store.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return store, nil
		}
		return nil, fmt.Errorf("read registry: %w", err)
	}
	if err := json.Unmarshal(raw, &store.doc); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", store.path, err)
	}
	if store.doc.Data == nil {
		store.doc.Data = map[string]Entry{}
	}
	for code, entry := range store.doc.Data {
		if _, ok := ParseStatus(string(entry.Status)); !ok {
			return nil, fmt.Errorf("registry entry %q has unknown status %q", code, entry.Status)
		}
	}
	return store, nil
}

// Save persists the full document, replacing the previous one atomically.
func (s *Store) Save() error {
	raw, err := json.MarshalIndent(&s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), documentName+".*")
	if err != nil {
		return fmt.Errorf("create registry temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close registry temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace registry: %w", err)
	}
	return nil
}

// Path returns the location of the persisted document.
func (s *Store) Path() string {
	return s.path
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.doc.Data)
}

// Get returns the entry for a code, if present.
func (s *Store) Get(code string) (Entry, bool) {
	canonical := CanonicalCode(code)
	entry, ok := s.doc.Data[canonical]
	if ok {
		entry.Code = canonical
	}
	return entry, ok
}

// Insert adds a new entry. A code is created exactly once; inserting an
// existing code fails.
func (s *Store) Insert(entry Entry) error {
	canonical := CanonicalCode(entry.Code)
	if canonical == "" {
		return errors.New("entry code required")
	}
	if _, exists := s.doc.Data[canonical]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCode, canonical)
	}
	entry.Code = canonical
	s.doc.Data[canonical] = entry
	return nil
}

// Update replaces an existing entry, enforcing the transition rules against
// the currently stored status.
func (s *Store) Update(entry Entry) error {
	canonical := CanonicalCode(entry.Code)
	current, exists := s.doc.Data[canonical]
	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownCode, canonical)
	}
	if !ValidTransition(current.Status, entry.Status) {
		return fmt.Errorf("illegal status transition %s -> %s for %s",
			current.Status, entry.Status, canonical)
	}
	entry.Code = canonical
	s.doc.Data[canonical] = entry
	return nil
}

// Codes returns a sorted snapshot of all codes.
func (s *Store) Codes() []string {
	codes := make([]string, 0, len(s.doc.Data))
	for code := range s.doc.Data {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// CodesWithStatus returns a sorted snapshot of the codes currently in any of
// the given statuses. Later status changes do not affect the snapshot.
func (s *Store) CodesWithStatus(statuses ...Status) []string {
	want := make(map[Status]struct{}, len(statuses))
	for _, status := range statuses {
		want[status] = struct{}{}
	}
	codes := make([]string, 0, len(s.doc.Data))
	for code, entry := range s.doc.Data {
		if _, ok := want[entry.Status]; ok {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes
}

// CountByStatus returns entry counts keyed by status.
func (s *Store) CountByStatus() map[Status]int {
	counts := make(map[Status]int, len(allStatuses))
	for _, entry := range s.doc.Data {
		counts[entry.Status]++
	}
	return counts
}

// LastSynchronization returns the discovery watermark date.
func (s *Store) LastSynchronization() string {
	return s.doc.PDB.LastSynchronization
}

// SetLastSynchronization advances the discovery watermark date.
func (s *Store) SetLastSynchronization(value string) {
	s.doc.PDB.LastSynchronization = value
}
