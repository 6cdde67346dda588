// Package catalog loads the item dictionary used to resolve names, quality,
// class and stack size of auction house items.
package catalog

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"ah-arbitrage/internal/compare"
	"ah-arbitrage/internal/models"
)

// Source provides the item catalog.
type Source interface {
	Catalog(ctx context.Context) (compare.Catalog, error)
}

// Decode reads an item dictionary (a JSON object keyed by item id) and drops
// malformed entries. Keys that are not numeric fall back to the entry's itemId.
func Decode(r io.Reader) (compare.Catalog, []error, error) {
	var raw map[string]models.CatalogEntry
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, nil, errors.Wrap(err, "decode item dictionary")
	}

	c := make(compare.Catalog, len(raw))
	for key, e := range raw {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			id = e.ItemID
		}
		if id <= 0 {
			continue
		}
		if e.ItemID == 0 {
			e.ItemID = id
		}
		c[id] = e
	}

	valid, rejected := compare.SanitizeCatalog(c)
	return valid, rejected, nil
}

// LoadFile decodes the item dictionary at path.
func LoadFile(path string) (compare.Catalog, []error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open item dictionary %s", path)
	}
	defer f.Close()

	return Decode(f)
}

// FileSource loads the dictionary from disk on first use and keeps it for the
// life of the process once a load succeeds.
type FileSource struct {
	path   string
	logger *zap.Logger

	mu      sync.Mutex
	catalog compare.Catalog
}

// NewFileSource creates a FileSource for path.
func NewFileSource(path string, logger *zap.Logger) *FileSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSource{path: path, logger: logger}
}

// Catalog returns the loaded catalog. Until a load succeeds every call reads
// the file again.
func (s *FileSource) Catalog(_ context.Context) (compare.Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.catalog != nil {
		return s.catalog, nil
	}

	c, rejected, err := LoadFile(s.path)
	if err != nil {
		return nil, err
	}
	if len(rejected) > 0 {
		s.logger.Warn("dropped malformed catalog entries",
			zap.Int("count", len(rejected)),
			zap.Error(rejected[0]))
	}
	s.logger.Info("item catalog loaded", zap.String("path", s.path), zap.Int("items", len(c)))
	s.catalog = c
	return c, nil
}

// Static serves a fixed catalog.
type Static compare.Catalog

// Catalog implements Source.
func (s Static) Catalog(context.Context) (compare.Catalog, error) {
	return compare.Catalog(s), nil
}
