package exprharmony

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

var (
	clientMu sync.Mutex

	// Safe for concurrent use by multiple goroutines once created
	client *storage.Client
)

// SetStorageClient overrides the Google Storage client used for gs:// paths.
// If never called, a client with default credentials is created on the first
// gs:// access.
func SetStorageClient(c *storage.Client) {
	clientMu.Lock()
	defer clientMu.Unlock()
	client = c
}

func storageClient(ctx context.Context) (*storage.Client, error) {
	clientMu.Lock()
	defer clientMu.Unlock()

	if client != nil {
		return client, nil
	}

	var err error
	client, err = storage.NewClient(ctx)
	if err != nil {
		return nil, pfx.Err(err)
	}

	return client, nil
}

// JoinPath appends name to folder with a single slash. Unlike filepath.Join it
// leaves the scheme of gs:// folders intact.
func JoinPath(folder, name string) string {
	if folder == "" {
		return name
	}
	if !strings.HasSuffix(folder, "/") {
		folder += "/"
	}
	return folder + name
}

// IsGoogleStoragePath reports whether path points into a Google Storage bucket.
func IsGoogleStoragePath(path string) bool {
	return strings.HasPrefix(path, "gs://")
}

func splitGoogleStoragePath(path string) (bucket, object string, err error) {
	// Detect the bucket and the path to the actual file
	pathParts := strings.SplitN(strings.TrimPrefix(path, "gs://"), "/", 2)
	if len(pathParts) != 2 || pathParts[1] == "" {
		return "", "", fmt.Errorf("tried to split your google storage path into 2 parts, but got %d: %v", len(pathParts), pathParts)
	}

	return pathParts[0], pathParts[1], nil
}

// OpenRaw opens a local path (with ~ expansion) or a gs:// object without
// any decompression.
func OpenRaw(ctx context.Context, path string) (io.ReadCloser, error) {
	if IsGoogleStoragePath(path) {
		bucketName, objectName, err := splitGoogleStoragePath(path)
		if err != nil {
			return nil, pfx.Err(err)
		}

		c, err := storageClient(ctx)
		if err != nil {
			return nil, err
		}

		rdr, err := c.Bucket(bucketName).Object(objectName).NewReader(ctx)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
		}

		return rdr, nil
	}

	local, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(local)
	if err != nil {
		return nil, pfx.Err(err)
	}

	return f, nil
}

// Open opens a local or gs:// path and transparently decompresses gzip, zip,
// xz, zlib and bzip2 content.
func Open(ctx context.Context, path string) (io.ReadCloser, error) {
	raw, err := OpenRaw(ctx, path)
	if err != nil {
		return nil, err
	}

	rc, _, err := MaybeDecompress(raw)
	if err != nil {
		raw.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return rc, nil
}

// ReadAll returns the full, decompressed content of path.
func ReadAll(ctx context.Context, path string) ([]byte, error) {
	rc, err := Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	return b, nil
}

// LocalPath returns a path on the local filesystem holding the content of
// path. Local paths are returned as-is (after ~ expansion). gs:// objects are
// copied into a temporary file, which the returned cleanup function removes.
// This serves readers, such as NetCDF, that need random access to a file.
func LocalPath(ctx context.Context, path string) (string, func(), error) {
	nop := func() {}

	if !IsGoogleStoragePath(path) {
		local, err := ExpandHome(path)
		return local, nop, err
	}

	raw, err := OpenRaw(ctx, path)
	if err != nil {
		return "", nop, err
	}
	defer raw.Close()

	tmp, err := os.CreateTemp("", "exprharmony-*"+filepath.Ext(path))
	if err != nil {
		return "", nop, pfx.Err(err)
	}
	cleanup := func() { os.Remove(tmp.Name()) }

	if _, err := io.Copy(tmp, raw); err != nil {
		tmp.Close()
		cleanup()
		return "", nop, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nop, pfx.Err(err)
	}

	return tmp.Name(), cleanup, nil
}
