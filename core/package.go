package asic

import (
	"context"
	_ "crypto/sha256" // register for go-digest
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/meigma/asic/core/internal/batch"
)

// PackageJob describes one container built by Package.
type PackageJob struct {
	// Dest is the container file to create.
	Dest string

	// Source is a regular file or a directory whose files become data entries.
	Source string

	// Prefix places the data entries under a directory inside the container.
	Prefix string

	// RootFile designates the root file when non-empty.
	RootFile string

	// Encrypt selects the data entries to encrypt by their path relative to
	// Source. A single-file source is matched by its base name.
	Encrypt func(path string) bool

	// Progress receives progress updates while a directory is added.
	Progress ProgressFunc
}

// Package builds, signs and closes the container described by job and
// returns an OCI descriptor of the resulting file. On failure the partial
// file is removed.
func Package(ctx context.Context, job PackageJob, opts ...Option) (ocispec.Descriptor, error) {
	w, err := CreateFile(ctx, job.Dest, opts...)
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	if err := fill(ctx, w, job); err != nil {
		_ = w.Abort()
		return ocispec.Descriptor{}, err
	}
	if err := w.Close(); err != nil {
		_ = os.Remove(job.Dest)
		return ocispec.Descriptor{}, err
	}
	return Describe(job.Dest)
}

func fill(ctx context.Context, w *Writer, job PackageJob) error {
	info, err := os.Stat(job.Source)
	if err != nil {
		return err
	}
	if info.IsDir() {
		opts := []AddDirOption{AddDirWithPrefix(job.Prefix)}
		if job.Encrypt != nil {
			opts = append(opts, AddDirWithEncrypt(job.Encrypt))
		}
		if job.Progress != nil {
			opts = append(opts, AddDirWithProgress(job.Progress))
		}
		if err := w.AddDir(ctx, job.Source, opts...); err != nil {
			return err
		}
	} else {
		base := filepath.Base(job.Source)
		if job.Encrypt != nil && job.Encrypt(base) {
			w.EncryptNext()
		}
		if err := w.AddFile(ctx, path.Join(job.Prefix, base), job.Source); err != nil {
			return err
		}
	}

	if job.RootFile != "" {
		if err := w.SetRootFile(job.RootFile); err != nil {
			return err
		}
	}
	return w.Sign(ctx)
}

// PackageAll runs Package for every job on a bounded worker pool and returns
// the descriptors in job order. Workers below zero run the jobs serially;
// zero uses GOMAXPROCS. The strategies in opts are shared between jobs and
// must be safe for concurrent use.
func PackageAll(ctx context.Context, jobs []PackageJob, workers int, opts ...Option) ([]ocispec.Descriptor, error) {
	cfg := Config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	descs := make([]ocispec.Descriptor, len(jobs))
	runner := batch.NewRunner(batch.WithWorkers(workers), batch.WithLogger(cfg.Logger))
	err := runner.Run(ctx, len(jobs), func(ctx context.Context, i int) error {
		desc, err := Package(ctx, jobs[i], opts...)
		if err != nil {
			return fmt.Errorf("package %s: %w", jobs[i].Dest, err)
		}
		descs[i] = desc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return descs, nil
}

// Describe returns an OCI descriptor of the container file at path.
func Describe(path string) (ocispec.Descriptor, error) {
	f, err := os.Open(path) //nolint:gosec // user-provided path is intentional
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return ocispec.Descriptor{}, err
	}
	dgst, err := digest.FromReader(f)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("digest container: %w", err)
	}
	return ocispec.Descriptor{
		MediaType: ContainerMimeType,
		Digest:    dgst,
		Size:      info.Size(),
		Annotations: map[string]string{
			ocispec.AnnotationTitle: filepath.Base(path),
		},
	}, nil
}
