package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/kebairia/fsback/internal/pathutil"
)

// ErrLoadConfig indicates a failure to read or parse the registration store.
var ErrLoadConfig = errors.New("config load failed")

// ErrDuplicatePath indicates the path is already registered, compared on
// the environment-expanded form.
var ErrDuplicatePath = errors.New("path already registered")

// ErrPathNotRegistered indicates a remove target that is not in the store.
var ErrPathNotRegistered = errors.New("path not registered")

// ErrCancelled indicates the user declined a confirmation prompt.
var ErrCancelled = errors.New("cancelled")

// Entry is one registered backup source in its normalized form. Store
// files may spell an entry as a bare path string or as an object; both
// normalize to this shape at load time and nothing downstream ever
// re-inspects the original spelling.
type Entry struct {
	Path        string   `mapstructure:"path"        yaml:"path"`
	Service     string   `mapstructure:"service"     yaml:"service,omitempty"`
	Exclude     []string `mapstructure:"exclude"     yaml:"exclude,omitempty"`
	Destination string   `mapstructure:"destination" yaml:"destination,omitempty"`
}

// Expanded returns the canonical form of the entry's path.
func (e Entry) Expanded() string {
	return pathutil.Expand(e.Path)
}

// bare reports whether the entry carries nothing beyond the path, so it
// can be written back as a plain string.
func (e Entry) bare() bool {
	return e.Service == "" && len(e.Exclude) == 0 && e.Destination == ""
}

// Store is the registration store: the ordered list of backup sources.
// It is loaded fully at the start of an operation and saved fully after
// a mutation; it is never shared between concurrent invocations.
type Store struct {
	entries []Entry
	path    string
}

// Load reads the store file at path. A file that does not exist yet
// yields an empty store so that `path add` can bootstrap it.
func Load(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return &Store{path: path}, nil
		}
		return nil, fmt.Errorf("%w: stat %s: %v", ErrLoadConfig, path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrLoadConfig, path, err)
	}

	raw, ok := v.Get("backup_paths").([]any)
	if !ok && v.Get("backup_paths") != nil {
		return nil, fmt.Errorf("%w: backup_paths is not a sequence", ErrLoadConfig)
	}

	store := &Store{path: path, entries: make([]Entry, 0, len(raw))}
	for i, item := range raw {
		entry, err := normalizeEntry(item)
		if err != nil {
			return nil, fmt.Errorf("%w: backup_paths[%d]: %v", ErrLoadConfig, i, err)
		}
		store.entries = append(store.entries, entry)
	}
	return store, nil
}

// normalizeEntry folds the two accepted spellings into an Entry.
func normalizeEntry(item any) (Entry, error) {
	if path, ok := item.(string); ok {
		return Entry{Path: path}, nil
	}
	var entry Entry
	if err := mapstructure.Decode(item, &entry); err != nil {
		return Entry{}, err
	}
	if entry.Path == "" {
		return Entry{}, errors.New("entry has no path")
	}
	return entry, nil
}

// Entries returns the registered entries in registration order.
func (s *Store) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of registered entries.
func (s *Store) Len() int { return len(s.entries) }

// Add registers a new path. Duplicates are detected on the expanded
// form, so two spellings resolving to the same location are rejected.
// When the expanded path does not exist on disk, confirm is consulted
// before registering it anyway.
func (s *Store) Add(path string, confirm func(prompt string) bool) error {
	literal := filepath.Clean(path)
	expanded := pathutil.Expand(path)

	for _, entry := range s.entries {
		if entry.Expanded() == expanded {
			return fmt.Errorf("%w: %s -> %s", ErrDuplicatePath, literal, expanded)
		}
	}

	if _, err := os.Stat(expanded); err != nil {
		prompt := fmt.Sprintf("path does not exist: %s. Add it anyway?", expanded)
		if confirm == nil || !confirm(prompt) {
			return ErrCancelled
		}
	}

	// The literal spelling is stored so environment references stay
	// portable across accounts.
	s.entries = append(s.entries, Entry{Path: literal})
	return s.Save()
}

// Remove unregisters a path, matching either the literal spelling or the
// expanded form.
func (s *Store) Remove(path string) error {
	literal := filepath.Clean(path)
	expanded := pathutil.Expand(path)

	for i, entry := range s.entries {
		if filepath.Clean(entry.Path) == literal || entry.Expanded() == expanded {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return s.Save()
		}
	}
	return fmt.Errorf("%w: %s", ErrPathNotRegistered, literal)
}

// storeFile is the on-disk shape of the registration store.
type storeFile struct {
	BackupPaths []any `yaml:"backup_paths"`
}

// Save writes the store back out. Entries with no optional fields are
// written as bare strings, round-tripping the duck-typed file shape.
func (s *Store) Save() error {
	doc := storeFile{BackupPaths: make([]any, 0, len(s.entries))}
	for _, entry := range s.entries {
		if entry.bare() {
			doc.BackupPaths = append(doc.BackupPaths, entry.Path)
			continue
		}
		doc.BackupPaths = append(doc.BackupPaths, entry)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %q: %w", dir, err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write config %q: %w", s.path, err)
	}
	return nil
}
