// Package runtime materializes a usable dispatcher in a local run directory,
// either by downloading and unpacking a compute package from the control
// plane, or by copying a local compute directory (the "local" fallback when
// remote_compute_context is disabled).
package runtime

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/scaleout-labs/fednworker/internal/dispatcher"
	"github.com/scaleout-labs/fednworker/pkg/metrics"
)

// ErrChecksumMismatch is returned by Validate when the downloaded package's
// digest doesn't match the configured checksum. Treated as fatal by callers.
var ErrChecksumMismatch = errors.New("runtime: package checksum mismatch")

// maxDownloadAttempts and downloadRetryInterval implement the package
// download retry policy: up to 10 attempts, 60 seconds apart.
const (
	maxDownloadAttempts  = 10
	downloadRetryInterval = 60 * time.Second
)

// PackageFetcher is the narrow capability Runtime needs from the discovery
// connector to retrieve a compute package.
type PackageFetcher interface {
	FetchPackage(ctx context.Context) ([]byte, error)
	FetchPackageChecksum(ctx context.Context) (string, error)
}

// entryPointsManifest mirrors the compute package's entry_points.yaml.
type entryPointsManifest struct {
	EntryPoints map[string]struct {
		Command []string `yaml:"command"`
	} `yaml:"entry_points"`
}

// Download retries fetcher.FetchPackage up to maxDownloadAttempts times,
// downloadRetryInterval apart. The context may be canceled to abandon the
// retry loop early (e.g. on shutdown).
func Download(ctx context.Context, fetcher PackageFetcher) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= maxDownloadAttempts; attempt++ {
		metrics.PackageDownloadAttemptsTotal.Inc()
		data, err := fetcher.FetchPackage(ctx)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if attempt == maxDownloadAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(downloadRetryInterval):
		}
	}
	return nil, fmt.Errorf("download package after %d attempts: %w", maxDownloadAttempts, lastErr)
}

// Validate computes the SHA-256 digest of data and compares it against
// checksum (hex-encoded). An empty checksum means validation is skipped; the
// caller is expected to log an explicit trust warning in that case.
func Validate(data []byte, checksum string) error {
	if checksum == "" {
		return nil
	}
	sum := sha256.Sum256(data)
	got := hex.EncodeToString(sum[:])
	if got != checksum {
		return fmt.Errorf("%w: want %s, got %s", ErrChecksumMismatch, checksum, got)
	}
	return nil
}

// Unpack expands a .tar.gz compute package archive into dir.
func Unpack(dir string, archive []byte) error {
	gz, err := gzip.NewReader(bytes.NewReader(archive))
	if err != nil {
		return fmt.Errorf("open package gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read package tar entry: %w", err)
		}
		target := filepath.Join(dir, filepath.Clean(hdr.Name))
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fs.FileMode(hdr.Mode))
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			out.Close()
		}
	}
}

// Bind reads dir/entry_points.yaml and returns a Dispatcher rooted at dir.
// Required entries are train and validate; predict/infer and startup are
// optional.
func Bind(dir string) (*dispatcher.Dispatcher, error) {
	data, err := os.ReadFile(filepath.Join(dir, "entry_points.yaml"))
	if err != nil {
		return nil, fmt.Errorf("read entry_points.yaml: %w", err)
	}
	var manifest entryPointsManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse entry_points.yaml: %w", err)
	}

	eps := make(map[string]dispatcher.EntryPoint, len(manifest.EntryPoints))
	for name, ep := range manifest.EntryPoints {
		eps[name] = dispatcher.EntryPoint{Command: ep.Command}
	}
	for _, required := range []string{"train", "validate"} {
		if _, ok := eps[required]; !ok {
			return nil, fmt.Errorf("entry_points.yaml missing required entry %q", required)
		}
	}
	return dispatcher.New(dir, eps), nil
}

// FromLocalDir builds a Dispatcher from a fixed local compute directory
// (train.py/validate.py/predict.py convention), used when
// remote_compute_context is disabled. srcDir is copied verbatim into runDir.
func FromLocalDir(runDir, srcDir string) (*dispatcher.Dispatcher, error) {
	if err := copyTree(srcDir, runDir); err != nil {
		return nil, fmt.Errorf("copy local compute dir: %w", err)
	}
	eps := map[string]dispatcher.EntryPoint{
		"train":    {Command: []string{"python3", "train.py"}},
		"validate": {Command: []string{"python3", "validate.py"}},
		"predict":  {Command: []string{"python3", "predict.py"}},
	}
	return dispatcher.New(runDir, eps), nil
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		out, err := os.Create(target)
		if err != nil {
			return err
		}
		defer out.Close()
		_, err = io.Copy(out, in)
		return err
	})
}
