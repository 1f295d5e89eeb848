package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/couchcryptid/crash-data-dashboard/internal/model"
	"github.com/puzpuzpuz/xsync/v4"
)

// validName keeps model names inside the model directory.
var validName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ModelStore lazily loads <dir>/<name>.json classifiers and keeps them for
// the life of the process.
type ModelStore struct {
	dir    string
	models *xsync.Map[string, *model.Classifier]
	logger *slog.Logger
}

// NewModelStore creates a store reading artifacts from dir.
func NewModelStore(dir string, logger *slog.Logger) *ModelStore {
	return &ModelStore{
		dir:    dir,
		models: xsync.NewMap[string, *model.Classifier](),
		logger: logger,
	}
}

// Get returns the named classifier, loading it on first use. Unknown names
// return model.ErrModelNotFound. Failed loads are not cached.
func (s *ModelStore) Get(name string) (*model.Classifier, error) {
	if !validName.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", model.ErrModelNotFound, name)
	}
	if c, ok := s.models.Load(name); ok {
		return c, nil
	}

	var loadErr error
	c, _ := s.models.Compute(name, func(old *model.Classifier, loaded bool) (*model.Classifier, xsync.ComputeOp) {
		if loaded {
			return old, xsync.UpdateOp
		}
		c, err := s.load(name)
		if err != nil {
			loadErr = err
			return nil, xsync.CancelOp
		}
		return c, xsync.UpdateOp
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return c, nil
}

// Names lists the artifacts present in the model directory.
func (s *ModelStore) Names() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list models: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ".json")
		if e.IsDir() || !ok || !validName.MatchString(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *ModelStore) load(name string) (*model.Classifier, error) {
	path := filepath.Join(s.dir, name+".json")
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", model.ErrModelNotFound, name)
		}
		return nil, fmt.Errorf("open model %s: %w", name, err)
	}
	defer f.Close()

	c, err := model.Load(f)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", name, err)
	}
	s.logger.Info("model loaded", "model", name, "features", len(c.Options()))
	return c, nil
}
