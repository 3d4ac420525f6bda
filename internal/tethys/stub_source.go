package tethys

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"tethys-harvester/internal/model"
)

// StubSource is an in-memory Source for tests and offline runs. Files maps
// source identifier to file contents; FailIDs lists identifiers whose fetch
// should fail.
type StubSource struct {
	Files   map[string]string
	FailIDs map[string]bool
	ListErr error

	mu         sync.Mutex
	ListCalls  int
	FetchCalls int
}

func (s *StubSource) ListAvailable(ctx context.Context) ([]RemoteFile, error) {
	s.mu.Lock()
	s.ListCalls++
	s.mu.Unlock()

	if s.ListErr != nil {
		return nil, s.ListErr
	}
	ids := make([]string, 0, len(s.Files))
	for id := range s.Files {
		ids = append(ids, id)
	}
	for id := range s.FailIDs {
		if _, ok := s.Files[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	files := make([]RemoteFile, 0, len(ids))
	for _, id := range ids {
		files = append(files, RemoteFile{ID: id, URL: "stub://" + id})
	}
	return files, nil
}

func (s *StubSource) Fetch(ctx context.Context, id string) (io.ReadCloser, error) {
	s.mu.Lock()
	s.FetchCalls++
	s.mu.Unlock()

	if s.FailIDs[id] {
		return nil, errors.Wrapf(model.ErrNetwork, "stub fetch failure for %s", id)
	}
	content, ok := s.Files[id]
	if !ok {
		return nil, errors.Wrapf(model.ErrNetwork, "unknown source identifier %q", id)
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

// Calls returns how many times the stub was contacted, for
// no-network-access assertions.
func (s *StubSource) Calls() (list, fetch int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ListCalls, s.FetchCalls
}
