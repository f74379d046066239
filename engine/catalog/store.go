package catalog

import (
	"log/slog"
	"sync"
)

// Store indexes the loaded catalog and serves read access to turns. The
// snapshot swap on reload is atomic; in-flight turns keep the slices they
// already hold.
type Store struct {
	mu   sync.RWMutex
	path string

	version   int
	byID      map[string]*Template
	byEmotion map[string][]*Template
	all       []*Template
}

// NewStore loads the catalog at path and builds the indexes. A catalog with
// zero valid templates fails the load.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}
	version, templates, err := load(path)
	if err != nil {
		return nil, err
	}
	s.install(version, templates)
	slog.Info("template catalog loaded",
		"path", path,
		"catalog_version", version,
		"templates", len(templates))
	return s, nil
}

// Get returns the template with the given id.
func (s *Store) Get(id string) (*Template, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.byID[id]
	return t, ok
}

// ByEmotion returns the templates carrying the given emotion tag. The
// returned slice is shared; callers must not mutate it.
func (s *Store) ByEmotion(tag string) []*Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byEmotion[tag]
}

// All returns every loaded template.
func (s *Store) All() []*Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.all
}

// Version returns the loaded catalog version.
func (s *Store) Version() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Len returns the number of loaded templates.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.all)
}

// Reload re-reads the catalog file and swaps the snapshot if the on-disk
// version differs from the loaded one. A failed or unchanged read keeps the
// current snapshot.
func (s *Store) Reload() (bool, error) {
	version, templates, err := load(s.path)
	if err != nil {
		slog.Warn("catalog reload failed, keeping current snapshot",
			"path", s.path,
			"catalog_version", s.Version(),
			"error", err)
		return false, err
	}
	if version == s.Version() {
		return false, nil
	}

	s.install(version, templates)
	slog.Info("template catalog reloaded",
		"path", s.path,
		"catalog_version", version,
		"templates", len(templates))
	return true, nil
}

func (s *Store) install(version int, templates []*Template) {
	byID := make(map[string]*Template, len(templates))
	byEmotion := make(map[string][]*Template)
	for _, t := range templates {
		byID[t.ID] = t
		for _, tag := range t.EmotionTags {
			byEmotion[tag] = append(byEmotion[tag], t)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.version = version
	s.byID = byID
	s.byEmotion = byEmotion
	s.all = templates
}
