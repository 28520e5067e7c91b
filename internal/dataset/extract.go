package dataset

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	ingesterrors "github.com/dvloznov/dataset-loader/internal/errors"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
)

type archiveFormat int

const (
	formatUnknown archiveFormat = iota
	formatZip
	formatTar
	formatTarGzip
	formatTarZstd
)

func (f archiveFormat) String() string {
	switch f {
	case formatZip:
		return "ZIP"
	case formatTar:
		return "TAR"
	case formatTarGzip:
		return "TAR.GZ"
	case formatTarZstd:
		return "TAR.ZST"
	default:
		return "UNKNOWN"
	}
}

func detectFormat(name string) archiveFormat {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return formatZip
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return formatTarGzip
	case strings.HasSuffix(lower, ".tar.zst"), strings.HasSuffix(lower, ".tzst"):
		return formatTarZstd
	case strings.HasSuffix(lower, ".tar"):
		return formatTar
	default:
		return formatUnknown
	}
}

// FormatName returns the archive format label used in messages, e.g. "ZIP".
func FormatName(archive string) string {
	return detectFormat(archive).String()
}

// extractArchive unpacks src into dest, which must already exist.
func extractArchive(ctx context.Context, src, dest string) error {
	switch format := detectFormat(src); format {
	case formatZip:
		return extractZip(ctx, src, dest)
	case formatTar, formatTarGzip, formatTarZstd:
		f, err := os.Open(src)
		if err != nil {
			return fmt.Errorf("open archive %s: %w", src, err)
		}
		defer f.Close()

		var r io.Reader = f
		switch format {
		case formatTarGzip:
			gz, err := gzip.NewReader(f)
			if err != nil {
				return fmt.Errorf("open gzip stream %s: %w", src, err)
			}
			defer gz.Close()
			r = gz
		case formatTarZstd:
			zr, err := zstd.NewReader(f)
			if err != nil {
				return fmt.Errorf("open zstd stream %s: %w", src, err)
			}
			defer zr.Close()
			r = zr
		}
		return extractTar(ctx, r, dest)
	default:
		return fmt.Errorf("%s: %w", filepath.Base(src), ingesterrors.ErrUnsupportedArchive)
	}
}

func extractZip(ctx context.Context, src, dest string) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("open zip %s: %w", src, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		target, err := safeJoin(dest, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}
			continue
		}
		if !f.Mode().IsRegular() {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("open zip entry %s: %w", f.Name, err)
		}
		err = writeFile(target, rc)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func extractTar(ctx context.Context, r io.Reader, dest string) error {
	tr := tar.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		target, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := writeFile(target, tr); err != nil {
				return err
			}
		default:
			// Links and device entries are not part of a dataset export.
		}
	}
}

// safeJoin joins an archive entry name onto dest and rejects names that
// would land outside dest.
func safeJoin(dest, name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("archive entry %q has an absolute path", name)
	}
	target := filepath.Join(dest, name)
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("archive entry %q escapes extraction directory", name)
	}
	return target, nil
}

func writeFile(target string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", filepath.Dir(target), err)
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", target, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", target, err)
	}
	return nil
}
