package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"github.com/samvad-hq/samvad-feed-translator/internal/domain"
	"github.com/samvad-hq/samvad-feed-translator/internal/logger"
)

// Store owns the JSON file holding every processed Article.
type Store struct {
	path string
	log  logger.Logger
}

// New returns a Store for the JSON file at path.
func New(path string, log logger.Logger) *Store {
	return &Store{path: path, log: logger.Ensure(log)}
}

// Path returns the state file location.
func (s *Store) Path() string { return s.path }

// Load reads the persisted collection. A missing or blank file is an empty collection;
// anything unreadable or not a JSON array of articles is a *domain.PersistenceError.
func (s *Store) Load() ([]domain.Article, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.InfoObj("no existing state found", "state_path", s.path)
		return []domain.Article{}, nil
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "read state", Path: s.path, Err: err}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return []domain.Article{}, nil
	}

	var records []domain.Article
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, &domain.PersistenceError{Op: "decode state", Path: s.path, Err: err}
	}

	out := dedupe(records, s.log)
	s.log.InfoObj("state loaded", "state_meta", map[string]any{
		"path":     s.path,
		"articles": len(out),
	})
	return out, nil
}

// Save replaces the state file in one rename, so readers see either the old or the new
// collection and never a partial write.
func (s *Store) Save(records []domain.Article) error {
	p, err := s.Stage(records)
	if err != nil {
		return err
	}
	defer p.Discard()
	return p.Commit()
}

// Pending is a state write that has reached disk in a temp file but is not yet visible
// at the state path.
type Pending struct {
	store     *Store
	file      *renameio.PendingFile
	records   int
	size      int
	prev      []byte
	existed   bool
	committed bool
}

// Stage encodes records into a temp file next to the state file and remembers the
// current content so a commit can be undone.
func (s *Store) Stage(records []domain.Article) (*Pending, error) {
	if records == nil {
		records = []domain.Article{}
	}

	payload, err := Encode(records)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "encode state", Path: s.path, Err: err}
	}

	prev, err := os.ReadFile(s.path)
	existed := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, &domain.PersistenceError{Op: "read state", Path: s.path, Err: err}
	}

	f, err := NewPendingFile(s.path)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "write state", Path: s.path, Err: err}
	}
	if _, err := f.Write(payload); err != nil {
		_ = f.Cleanup()
		return nil, &domain.PersistenceError{Op: "write state", Path: s.path, Err: err}
	}
	return &Pending{
		store:   s,
		file:    f,
		records: len(records),
		size:    len(payload),
		prev:    prev,
		existed: existed,
	}, nil
}

// Commit renames the staged file over the state path.
func (p *Pending) Commit() error {
	s := p.store
	if err := p.file.CloseAtomicallyReplace(); err != nil {
		return &domain.PersistenceError{Op: "write state", Path: s.path, Err: err}
	}
	p.committed = true
	s.log.InfoObj("state saved", "state_meta", map[string]any{
		"path":     s.path,
		"articles": p.records,
		"bytes":    p.size,
	})
	return nil
}

// Discard removes the temp file of an uncommitted write. It is a no-op after Commit.
func (p *Pending) Discard() {
	_ = p.file.Cleanup()
}

// Restore puts back the content the state path had before Commit. A state file that did
// not exist before is removed.
func (p *Pending) Restore() error {
	if !p.committed {
		return nil
	}
	s := p.store
	var err error
	if p.existed {
		err = WriteFileAtomic(s.path, p.prev)
	} else {
		err = os.Remove(s.path)
	}
	if err != nil {
		return &domain.PersistenceError{Op: "restore state", Path: s.path, Err: err}
	}
	p.committed = false
	s.log.WarnObj("state restored to previous content", "state_path", s.path)
	return nil
}

// Encode renders records the way they are stored: indented, non-ASCII kept verbatim.
func Encode(records []domain.Article) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFileAtomic creates the parent directory and atomically replaces path with data.
func WriteFileAtomic(path string, data []byte) error {
	f, err := NewPendingFile(path)
	if err != nil {
		return err
	}
	defer f.Cleanup()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.CloseAtomicallyReplace()
}

// NewPendingFile creates the parent directory of path and opens a temp file that
// CloseAtomicallyReplace renames onto path with mode 0644.
func NewPendingFile(path string) (*renameio.PendingFile, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory: %w", err)
		}
	}
	return renameio.NewPendingFile(path, renameio.WithPermissions(0o644), renameio.WithExistingPermissions())
}

// dedupe drops records without identity and keeps the first record of each identity.
func dedupe(records []domain.Article, log logger.Logger) []domain.Article {
	seen := make(map[string]struct{}, len(records))
	out := make([]domain.Article, 0, len(records))
	for _, rec := range records {
		if rec.ID == "" {
			log.WarnObj("state record without id dropped", "state_record", map[string]any{
				"link": rec.Link,
			})
			continue
		}
		if _, dup := seen[rec.ID]; dup {
			log.WarnObj("duplicate state record dropped", "state_record", map[string]any{
				"id": rec.ID,
			})
			continue
		}
		seen[rec.ID] = struct{}{}
		out = append(out, rec)
	}
	return out
}
