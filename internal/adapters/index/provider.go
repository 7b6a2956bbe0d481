// Package index fetches conda channel and pypi index listings.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/strata/internal/adapters/atomicfile"
	"go.trai.ch/strata/internal/adapters/remote"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// FileName is the listing read from every channel subdirectory or index URL.
const FileName = "index.json"

// NoarchSubdir is the conda subdirectory shared by every platform.
const NoarchSubdir = "noarch"

var _ ports.IndexProvider = (*Provider)(nil)

// listing is the on-disk shape of an index.json file, keyed by artifact file name.
type listing struct {
	Packages map[string]domain.IndexEntry `json:"packages"`
}

// Provider implements ports.IndexProvider. Indexes are fetched once per
// (ecosystem, platform, sources) and shared read-only between callers.
type Provider struct {
	client   *remote.Client
	cacheDir string

	group singleflight.Group
	mu    sync.RWMutex
	cache map[string]*domain.Index
}

// NewProvider creates a Provider. Raw listings are mirrored below cacheDir and used
// when a source cannot be reached. An empty cacheDir disables the disk cache.
func NewProvider(client *remote.Client, cacheDir string) *Provider {
	return &Provider{
		client:   client,
		cacheDir: cacheDir,
		cache:    make(map[string]*domain.Index),
	}
}

// Fetch returns the index described by req.
func (p *Provider) Fetch(ctx context.Context, req domain.IndexRequest) (*domain.Index, error) {
	key := requestKey(req)

	p.mu.RLock()
	idx, ok := p.cache[key]
	p.mu.RUnlock()
	if ok {
		return idx, nil
	}

	// Shared by every waiting caller; one caller's cancellation must not fail the others.
	shared := context.WithoutCancel(ctx)
	ch := p.group.DoChan(key, func() (any, error) {
		idx, err := p.load(shared, req)
		if err != nil {
			return nil, err
		}
		p.mu.Lock()
		p.cache[key] = idx
		p.mu.Unlock()
		return idx, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.Index), nil //nolint:forcetypeassert // only *domain.Index is stored
	}
}

func requestKey(req domain.IndexRequest) string {
	return req.Ecosystem.String() + "|" + string(req.Platform) + "|" + strings.Join(req.Sources, "|")
}

func (p *Provider) load(ctx context.Context, req domain.IndexRequest) (*domain.Index, error) {
	attempts := req.Attempts
	if attempts <= 0 {
		attempts = domain.DefaultIndexRetries
	}

	var entries []domain.IndexEntry
	for _, source := range req.Sources {
		for _, subdir := range subdirs(req.Ecosystem, req.Platform) {
			got, err := p.loadListing(ctx, source, subdir, attempts)
			if err != nil {
				return nil, zerr.With(zerr.With(err, "ecosystem", req.Ecosystem.String()), "platform", string(req.Platform))
			}
			entries = append(entries, got...)
		}
	}
	return domain.NewIndex(req.Ecosystem, req.Platform, entries), nil
}

// subdirs returns the listing subdirectories read for one platform. Pypi indexes are flat.
func subdirs(eco domain.Ecosystem, platform domain.Platform) []string {
	if eco == domain.EcosystemPyPI {
		return []string{""}
	}
	return []string{string(platform), NoarchSubdir}
}

func (p *Provider) loadListing(ctx context.Context, source, subdir string, attempts int) ([]domain.IndexEntry, error) {
	base := source
	if subdir != "" {
		base = remote.Join(source, subdir)
	}
	location := remote.Join(base, FileName)

	data, err := p.client.ReadAll(ctx, location, attempts)
	switch {
	case err == nil:
		p.store(location, data)
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case subdir == NoarchSubdir && errors.Is(err, remote.ErrNotFound):
		return nil, nil
	default:
		cached, ok := p.cached(location)
		if !ok {
			return nil, errors.Join(domain.ErrIndexFetch, zerr.With(err, "source", source))
		}
		data = cached
	}

	entries, err := parse(data, source, subdir, base)
	if err != nil {
		return nil, zerr.With(err, "location", location)
	}
	return entries, nil
}

// parse decodes a listing. Entries are returned in file name order with
// Channel, Subdir and missing URLs filled in.
func parse(data []byte, source, subdir, base string) ([]domain.IndexEntry, error) {
	var l listing
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, errors.Join(domain.ErrIndexParse, err)
	}

	out := make([]domain.IndexEntry, 0, len(l.Packages))
	for _, file := range slices.Sorted(maps.Keys(l.Packages)) {
		e := l.Packages[file]
		if e.Name == "" || e.Version == "" {
			return nil, zerr.With(zerr.Wrap(domain.ErrIndexParse, "entry without name or version"), "file", file)
		}
		if err := domain.CheckPathElements("name", e.Name, "version", e.Version, "build", e.Build); err != nil {
			return nil, zerr.With(errors.Join(domain.ErrIndexParse, err), "file", file)
		}
		if e.URL == "" {
			e.URL = remote.Join(base, file)
		}
		e.Channel = source
		e.Subdir = subdir
		out = append(out, e)
	}
	return out, nil
}

func (p *Provider) cachePath(location string) string {
	return filepath.Join(p.cacheDir, xxhashHex(location)+".json")
}

func (p *Provider) cached(location string) ([]byte, bool) {
	if p.cacheDir == "" {
		return nil, false
	}
	data, err := os.ReadFile(p.cachePath(location))
	if err != nil {
		return nil, false
	}
	return data, true
}

// store mirrors a listing to the disk cache. Failures only cost the offline fallback.
func (p *Provider) store(location string, data []byte) {
	if p.cacheDir == "" {
		return
	}
	_ = atomicfile.Write(p.cachePath(location), data, domain.FilePerm)
}

func xxhashHex(s string) string {
	return strconv.FormatUint(xxhash.Sum64String(s), 16)
}
