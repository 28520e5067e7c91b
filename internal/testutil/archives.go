// Package testutil provides shared test utilities for building dataset
// archives and waiting on asynchronous work.
package testutil

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

// DefaultTestTimeout is the standard timeout for async test operations.
const DefaultTestTimeout = 5 * time.Second

// RawDir is the folder YOLO exports keep images and labels in.
const RawDir = "obj_train_data"

// Files maps archive entry names to their contents.
type Files map[string]string

func (f Files) sortedNames() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// YOLOExport builds an export of n images named img_000.jpg and up. label
// returns the label file contents for image i, or "" to leave it unlabeled.
func YOLOExport(n int, label func(i int) string) Files {
	files := Files{}
	for i := 0; i < n; i++ {
		stem := fmt.Sprintf("%s/img_%03d", RawDir, i)
		files[stem+".jpg"] = fmt.Sprintf("jpeg-bytes-%d", i)
		if label == nil {
			continue
		}
		if l := label(i); l != "" {
			files[stem+".txt"] = l
		}
	}
	return files
}

// CowsExport is ten images of which the first eight carry one class-0 box.
func CowsExport() Files {
	return YOLOExport(10, func(i int) string {
		if i < 8 {
			return "0 0.5 0.5 0.25 0.25\n"
		}
		return ""
	})
}

// WriteZip writes files as a zip archive at path.
func WriteZip(t *testing.T, path string, files Files) {
	t.Helper()
	out := create(t, path)
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, name := range files.sortedNames() {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(w, files[name])
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

// WriteTar writes files as an uncompressed tar archive at path.
func WriteTar(t *testing.T, path string, files Files) {
	t.Helper()
	out := create(t, path)
	defer out.Close()
	writeTar(t, out, files)
}

// WriteTarGz writes files as a gzip-compressed tar archive at path.
func WriteTarGz(t *testing.T, path string, files Files) {
	t.Helper()
	out := create(t, path)
	defer out.Close()

	gz := gzip.NewWriter(out)
	writeTar(t, gz, files)
	require.NoError(t, gz.Close())
}

// WriteTarZstd writes files as a zstd-compressed tar archive at path.
func WriteTarZstd(t *testing.T, path string, files Files) {
	t.Helper()
	out := create(t, path)
	defer out.Close()

	zw, err := zstd.NewWriter(out)
	require.NoError(t, err)
	writeTar(t, zw, files)
	require.NoError(t, zw.Close())
}

// WriteTarEntries writes raw tar headers, for archives with unusual entries.
func WriteTarEntries(t *testing.T, path string, headers []*tar.Header, bodies []string) {
	t.Helper()
	require.Len(t, bodies, len(headers))
	out := create(t, path)
	defer out.Close()

	tw := tar.NewWriter(out)
	for i, hdr := range headers {
		require.NoError(t, tw.WriteHeader(hdr))
		if hdr.Typeflag == tar.TypeReg {
			_, err := io.WriteString(tw, bodies[i])
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
}

func writeTar(t *testing.T, w io.Writer, files Files) {
	t.Helper()
	tw := tar.NewWriter(w)
	for _, name := range files.sortedNames() {
		body := files[name]
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0o644,
			Size:     int64(len(body)),
			Typeflag: tar.TypeReg,
		}))
		_, err := io.WriteString(tw, body)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
}

func create(t *testing.T, path string) *os.File {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	return f
}

// Snapshot reads every regular file below root, keyed by slash-separated
// relative path.
func Snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			out[filepath.ToSlash(rel)+"/"] = ""
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return out
}

// WaitFor polls cond until it returns true or the timeout expires.
func WaitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.Fail(t, msg)
}
