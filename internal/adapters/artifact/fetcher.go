// Package artifact downloads package artifacts into a content-addressed cache.
package artifact

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/opencontainers/go-digest"
	"go.trai.ch/strata/internal/adapters/remote"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// DefaultAttempts bounds the downloads of one artifact.
const DefaultAttempts = 3

var _ ports.ArtifactFetcher = (*Fetcher)(nil)

// errMismatch marks a download whose content does not match its digest. It is never retried.
var errMismatch = errors.New("digest mismatch")

// Fetcher implements ports.ArtifactFetcher. Artifacts are stored as <dir>/<algorithm>/<hex>.
type Fetcher struct {
	client   *remote.Client
	dir      string
	attempts int
	group    singleflight.Group
}

// NewFetcher creates a Fetcher storing artifacts below dir.
func NewFetcher(client *remote.Client, dir string, attempts int) *Fetcher {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	return &Fetcher{client: client, dir: dir, attempts: attempts}
}

// Fetch returns the cached path of the artifact of record, downloading it when missing.
func (f *Fetcher) Fetch(ctx context.Context, record domain.ResolvedRecord) (string, error) {
	d, err := digest.Parse(record.Checksum)
	if err != nil {
		return "", zerr.With(zerr.Wrap(domain.ErrInvalidChecksum, err.Error()), "package", record.Name.String())
	}
	path := f.path(d)

	// The download is shared by every caller waiting on path, so it must outlive the
	// cancellation of whichever caller started it.
	shared := context.WithoutCancel(ctx)
	ch := f.group.DoChan(path, func() (any, error) {
		if ok, err := verifyFile(path, d); err == nil && ok {
			return path, nil
		}
		if err := f.download(shared, record.Source, path, d); err != nil {
			return nil, err
		}
		return path, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", zerr.With(res.Err, "package", record.Name.String())
		}
		return res.Val.(string), nil //nolint:forcetypeassert // only paths are stored
	}
}

func (f *Fetcher) path(d digest.Digest) string {
	return filepath.Join(f.dir, d.Algorithm().String(), d.Encoded())
}

func (f *Fetcher) download(ctx context.Context, source, path string, d digest.Digest) error {
	if source == "" {
		return zerr.Wrap(domain.ErrArtifactFetch, "record has no source")
	}
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return errors.Join(domain.ErrArtifactFetch, err)
	}

	err := f.client.Retry(ctx, f.attempts, func(ctx context.Context) error {
		return f.downloadOnce(ctx, source, path, d)
	})
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, errMismatch):
		return zerr.With(zerr.With(zerr.Wrap(domain.ErrChecksumMismatch, source), "expected", d.String()), "source", source)
	default:
		return errors.Join(domain.ErrArtifactFetch, zerr.With(err, "source", source))
	}
}

func (f *Fetcher) downloadOnce(ctx context.Context, source, path string, d digest.Digest) error {
	rc, err := f.client.Open(ctx, source)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	tmp, err := os.CreateTemp(filepath.Dir(path), ".download-*")
	if err != nil {
		return zerr.Wrap(err, "failed to create temporary file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	verifier := d.Verifier()
	if _, err := io.Copy(io.MultiWriter(tmp, verifier), rc); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(err, "failed to download")
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, "failed to write artifact")
	}
	if !verifier.Verified() {
		return errMismatch
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return zerr.Wrap(err, "failed to store artifact")
	}
	return nil
}

// verifyFile reports whether the file at path exists and matches d.
func verifyFile(path string, d digest.Digest) (bool, error) {
	file, err := os.Open(path) //nolint:gosec // path is derived from a parsed digest
	if err != nil {
		return false, err
	}
	defer func() { _ = file.Close() }()

	verifier := d.Verifier()
	if _, err := io.Copy(verifier, file); err != nil {
		return false, err
	}
	return verifier.Verified(), nil
}
