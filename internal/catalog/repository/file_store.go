package repository

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/narwhalmedia/watchlist/internal/catalog/codec"
	"github.com/narwhalmedia/watchlist/internal/catalog/domain"
	"github.com/narwhalmedia/watchlist/pkg/errors"
	"github.com/narwhalmedia/watchlist/pkg/interfaces"
)

// FileStoreName is reported by FileStore.Name.
const FileStoreName = "file"

// FileStore keeps titles in a single delimited-text file. Add appends one
// record; Update and Delete rewrite the whole file through a temporary file
// renamed over the original, so a failed rewrite leaves the old file intact.
// It is not safe for concurrent writers.
type FileStore struct {
	path   string
	logger interfaces.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates the file with just the header when it is missing.
func NewFileStore(path string, logger interfaces.Logger) (*FileStore, error) {
	s := &FileStore{
		path:   path,
		logger: logger.WithFields(interfaces.String("store", FileStoreName), interfaces.String("path", path)),
	}
	if err := s.ensureFile(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) Name() string {
	return FileStoreName
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) ensureFile() error {
	_, err := os.Stat(s.path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return errors.StorageUnavailable("stat catalog file", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.StorageUnavailable("create catalog directory", err)
		}
	}
	if err := os.WriteFile(s.path, []byte(codec.BOM+codec.Header()+"\n"), 0o644); err != nil {
		return errors.StorageUnavailable("create catalog file", err)
	}
	s.logger.Info("Created catalog file")
	return nil
}

// entry is one stored record. A corrupt entry did not decode; its raw text is
// carried through rewrites untouched.
type entry struct {
	title   domain.Title
	raw     string
	corrupt bool
}

func (s *FileStore) read(ctx context.Context) ([]entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Cancelled("read catalog", err)
	}
	if err := s.ensureFile(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, errors.StorageUnavailable("open catalog file", err)
	}
	defer f.Close()

	var entries []entry
	r := codec.NewReader(f)
	for {
		t, err := r.Next()
		if err == io.EOF {
			return entries, nil
		}
		if errors.IsStorageCorrupt(err) {
			s.logger.Warn("Skipping corrupt catalog record",
				interfaces.Int("line", r.Line()),
				interfaces.Error(err))
			entries = append(entries, entry{raw: r.Raw(), corrupt: true})
			continue
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{title: t})
	}
}

func (s *FileStore) GetAll(ctx context.Context) ([]domain.Title, error) {
	entries, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	titles := make([]domain.Title, 0, len(entries))
	for _, e := range entries {
		if !e.corrupt {
			titles = append(titles, e.title)
		}
	}
	return titles, nil
}

func (s *FileStore) Exists(ctx context.Context, name string, year int) (bool, error) {
	titles, err := s.GetAll(ctx)
	if err != nil {
		return false, err
	}
	key := domain.Key{Name: name, Year: year}
	for _, t := range titles {
		if t.Key() == key {
			return true, nil
		}
	}
	return false, nil
}

func (s *FileStore) Add(ctx context.Context, t domain.Title) error {
	if err := ctx.Err(); err != nil {
		return errors.Cancelled("add title", err)
	}
	if err := s.ensureFile(); err != nil {
		return err
	}

	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return errors.StorageUnavailable("open catalog file", err)
	}
	defer f.Close()

	record := codec.EncodeRecord(t) + "\n"
	if missing, err := missingTrailingNewline(f); err != nil {
		return errors.StorageUnavailable("inspect catalog file", err)
	} else if missing {
		record = "\n" + record
	}

	if _, err := f.WriteString(record); err != nil {
		return errors.StorageUnavailable("append title", err)
	}
	return nil
}

// missingTrailingNewline reports whether a hand-edited file ends mid-line.
func missingTrailingNewline(f *os.File) (bool, error) {
	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() == 0 {
		return false, nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return false, err
	}
	return last[0] != '\n', nil
}

func (s *FileStore) Update(ctx context.Context, t domain.Title) error {
	entries, err := s.read(ctx)
	if err != nil {
		return err
	}
	kept := removeKey(entries, t.Key())
	return s.rewrite(append(kept, entry{title: t}))
}

func (s *FileStore) Delete(ctx context.Context, name string, year int) error {
	entries, err := s.read(ctx)
	if err != nil {
		return err
	}
	kept := removeKey(entries, domain.Key{Name: name, Year: year})
	if len(kept) == len(entries) {
		return nil
	}
	return s.rewrite(kept)
}

func removeKey(entries []entry, key domain.Key) []entry {
	kept := make([]entry, 0, len(entries)+1)
	for _, e := range entries {
		if !e.corrupt && e.title.Key() == key {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

// rewrite replaces the file with entries via a sibling temp file and rename.
// The replacement keeps the original file mode.
func (s *FileStore) rewrite(entries []entry) (err error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return errors.StorageUnavailable("stat catalog file", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+"-*.tmp")
	if err != nil {
		return errors.StorageUnavailable("create temp catalog file", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	w := bufio.NewWriter(tmp)
	if _, err = w.WriteString(codec.BOM + codec.Header() + "\n"); err != nil {
		return errors.StorageUnavailable("write catalog", err)
	}
	for _, e := range entries {
		line := e.raw
		if !e.corrupt {
			line = codec.EncodeRecord(e.title)
		}
		if _, err = w.WriteString(line + "\n"); err != nil {
			return errors.StorageUnavailable("write catalog", err)
		}
	}
	if err = w.Flush(); err != nil {
		return errors.StorageUnavailable("write catalog", err)
	}
	if err = tmp.Chmod(info.Mode().Perm()); err != nil {
		return errors.StorageUnavailable("set catalog file mode", err)
	}
	if err = tmp.Sync(); err != nil {
		return errors.StorageUnavailable("sync catalog", err)
	}
	if err = tmp.Close(); err != nil {
		return errors.StorageUnavailable("close catalog", err)
	}
	if err = os.Rename(tmpName, s.path); err != nil {
		return errors.StorageUnavailable("replace catalog file", err)
	}
	return nil
}

func (s *FileStore) Search(ctx context.Context, query string) ([]domain.Title, error) {
	titles, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	folded := domain.Fold(query)
	return filter(titles, func(t domain.Title) bool { return matchesQuery(t, folded) }), nil
}

func (s *FileStore) FindByStatus(ctx context.Context, status domain.Status) ([]domain.Title, error) {
	titles, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	want := domain.Fold(string(status))
	return filter(titles, func(t domain.Title) bool { return domain.Fold(string(t.Status)) == want }), nil
}

func (s *FileStore) FindByKind(ctx context.Context, kind domain.Kind) ([]domain.Title, error) {
	titles, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	want := domain.Fold(string(kind))
	return filter(titles, func(t domain.Title) bool { return domain.Fold(string(t.Kind)) == want }), nil
}
