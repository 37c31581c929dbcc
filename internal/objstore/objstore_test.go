package objstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Lumos-Labs-HQ/txsynth/internal/config"
	"github.com/rs/zerolog"
)

func writeFiles(t *testing.T, files map[string]string) []string {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for name, body := range files {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	return paths
}

func TestUploadFiles(t *testing.T) {
	paths := writeFiles(t, map[string]string{
		"customers.csv":    "customer_id\nabc\n",
		"transactions.csv": "transaction_id\nxyz\n",
	})

	var mu sync.Mutex
	got := map[string]string{}
	meta := map[string]map[string]string{}
	mock := &ObjectStoreMock{
		PutFunc: func(ctx context.Context, bucket, obj string, reader io.Reader, size int64, contentType string, metadata map[string]string) error {
			data, err := io.ReadAll(reader)
			if err != nil {
				return err
			}
			if int64(len(data)) != size {
				t.Errorf("Expected %d bytes for %s, got %d", size, obj, len(data))
			}
			if bucket != "synthetic" {
				t.Errorf("Expected bucket synthetic, got %s", bucket)
			}
			if contentType != "text/csv" {
				t.Errorf("Expected text/csv, got %s", contentType)
			}
			mu.Lock()
			got[obj] = string(data)
			meta[obj] = metadata
			mu.Unlock()
			return nil
		},
	}

	uploaded, err := UploadFiles(context.Background(), mock, "synthetic", "runs/42", paths, zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to upload: %v", err)
	}
	if len(uploaded) != 2 {
		t.Fatalf("Expected 2 uploads, got %d", len(uploaded))
	}

	body, ok := got["runs/42/customers.csv"]
	if !ok {
		t.Fatalf("Expected runs/42/customers.csv to be uploaded, got %v", got)
	}
	if body != "customer_id\nabc\n" {
		t.Errorf("Unexpected object body: %q", body)
	}

	want, _, _ := Checksum(strings.NewReader(body))
	if meta["runs/42/customers.csv"][ChecksumKey] != want {
		t.Errorf("Expected checksum %s, got %s", want, meta["runs/42/customers.csv"][ChecksumKey])
	}
}

func TestUploadFilesStopsOnError(t *testing.T) {
	paths := writeFiles(t, map[string]string{"a.csv": "a", "b.csv": "b"})
	mock := &ObjectStoreMock{
		PutFunc: func(ctx context.Context, bucket, obj string, reader io.Reader, size int64, contentType string, metadata map[string]string) error {
			return errors.New("bucket unavailable")
		},
	}

	if _, err := UploadFiles(context.Background(), mock, "b", "", paths, zerolog.Nop()); err == nil {
		t.Error("Expected upload error to be returned")
	}
}

func TestUploadMissingFile(t *testing.T) {
	mock := &ObjectStoreMock{
		PutFunc: func(ctx context.Context, bucket, obj string, reader io.Reader, size int64, contentType string, metadata map[string]string) error {
			t.Error("Put should not be called for a missing file")
			return nil
		},
	}
	if _, err := UploadFiles(context.Background(), mock, "b", "", []string{"/does/not/exist.csv"}, zerolog.Nop()); err == nil {
		t.Error("Expected missing file to fail")
	}
}

func TestChecksumIsStable(t *testing.T) {
	a, n, err := Checksum(strings.NewReader("hello"))
	if err != nil {
		t.Fatal(err)
	}
	b, _, _ := Checksum(strings.NewReader("hello"))
	c, _, _ := Checksum(strings.NewReader("hello!"))
	if n != 5 {
		t.Errorf("Expected 5 bytes, got %d", n)
	}
	if a != b {
		t.Errorf("Expected equal checksums, got %s and %s", a, b)
	}
	if a == c {
		t.Error("Expected different inputs to hash differently")
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"x.csv":     "text/csv",
		"x.json":    "application/json",
		"x.parquet": "application/vnd.apache.parquet",
		"x.bin":     "application/octet-stream",
	}
	for file, want := range tests {
		if got := ContentType(file); got != want {
			t.Errorf("%s: expected %s, got %s", file, want, got)
		}
	}
}

func TestNewUnknownKind(t *testing.T) {
	if _, err := New(context.Background(), config.Upload{Kind: "ftp"}); err == nil {
		t.Error("Expected unsupported kind to fail")
	}
}
