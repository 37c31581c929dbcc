package objstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"
)

const maxParallelUploads = 4

// ChecksumKey is the object metadata key carrying the file's xxh3 hash.
const ChecksumKey = "xxh3"

type Uploaded struct {
	File     string
	Object   string
	Size     int64
	Checksum string
}

var contentTypes = map[string]string{
	".csv":     "text/csv",
	".json":    "application/json",
	".parquet": "application/vnd.apache.parquet",
}

func ContentType(file string) string {
	if ct, ok := contentTypes[filepath.Ext(file)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// UploadFiles puts every file under prefix in bucket. The first failure
// cancels the remaining uploads.
func UploadFiles(ctx context.Context, store ObjectStore, bucket, prefix string, files []string, log zerolog.Logger) ([]Uploaded, error) {
	results := make([]Uploaded, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelUploads)
	for i, file := range files {
		g.Go(func() error {
			up, err := uploadFile(gctx, store, bucket, path.Join(prefix, filepath.Base(file)), file)
			if err != nil {
				return err
			}
			log.Info().Str("file", file).Str("bucket", bucket).Str("object", up.Object).
				Int64("bytes", up.Size).Str("xxh3", up.Checksum).Msg("uploaded")
			results[i] = up
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func uploadFile(ctx context.Context, store ObjectStore, bucket, object, file string) (Uploaded, error) {
	f, err := os.Open(file)
	if err != nil {
		return Uploaded{}, fmt.Errorf("open file %q: %w", file, err)
	}
	defer f.Close()

	sum, size, err := Checksum(f)
	if err != nil {
		return Uploaded{}, fmt.Errorf("hash file %q: %w", file, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return Uploaded{}, fmt.Errorf("rewind file %q: %w", file, err)
	}

	meta := map[string]string{ChecksumKey: sum}
	if err := store.Put(ctx, bucket, object, f, size, ContentType(file), meta); err != nil {
		return Uploaded{}, fmt.Errorf("failed to upload %s to %s/%s: %w", file, bucket, object, err)
	}
	return Uploaded{File: file, Object: object, Size: size, Checksum: sum}, nil
}

// Checksum returns the hex xxh3-64 of r and the number of bytes read.
func Checksum(r io.Reader) (string, int64, error) {
	h := xxh3.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", 0, err
	}
	return strconv.FormatUint(h.Sum64(), 16), n, nil
}
