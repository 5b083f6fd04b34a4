package filesystem

import (
	"archive/tar"
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// CreateZip packs the source directory into a ZIP archive at output. Both
// paths resolve through the containment check.
func (s *Service) CreateZip(source, output string) error {
	srcAbs, files, err := s.collectArchiveFiles(source)
	if err != nil {
		return err
	}
	outAbs, err := s.ResolveAbsolute(output)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outAbs), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directories for %s: %w", output, err)
	}

	out, err := os.Create(outAbs)
	if err != nil {
		return fmt.Errorf("failed to create archive %s: %w", output, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, rel := range files {
		in, err := os.Open(filepath.Join(srcAbs, rel))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", rel, err)
		}
		entry, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			in.Close()
			return fmt.Errorf("failed to add %s to archive: %w", rel, err)
		}
		if _, err := io.Copy(entry, in); err != nil {
			in.Close()
			return fmt.Errorf("failed to add %s to archive: %w", rel, err)
		}
		in.Close()
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive %s: %w", output, err)
	}
	return nil
}

// ExtractZip unpacks a ZIP archive into destination. Every member path is
// re-checked against the destination so a crafted archive cannot write
// outside it.
func (s *Service) ExtractZip(archive, destination string) error {
	arcAbs, err := s.ResolveAbsolute(archive)
	if err != nil {
		return err
	}
	dstAbs, err := s.ResolveAbsolute(destination)
	if err != nil {
		return err
	}

	zr, err := zip.OpenReader(arcAbs)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", archive, err)
	}
	defer zr.Close()

	for _, member := range zr.File {
		target, err := memberPath(dstAbs, member.Name)
		if err != nil {
			return err
		}
		if member.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to extract %s: %w", member.Name, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("failed to extract %s: %w", member.Name, err)
		}
		in, err := member.Open()
		if err != nil {
			return fmt.Errorf("failed to extract %s: %w", member.Name, err)
		}
		if err := writeExtracted(target, in, member.Mode()); err != nil {
			in.Close()
			return fmt.Errorf("failed to extract %s: %w", member.Name, err)
		}
		in.Close()
	}
	return nil
}

// CreateTarGz packs the source directory into a gzip-compressed tarball.
func (s *Service) CreateTarGz(source, output string) error {
	return s.createTar(source, output, func(w io.Writer) (io.WriteCloser, error) {
		return gzip.NewWriter(w), nil
	})
}

// ExtractTarGz unpacks a gzip-compressed tarball into destination.
func (s *Service) ExtractTarGz(archive, destination string) error {
	return s.extractTar(archive, destination, func(r io.Reader) (io.ReadCloser, error) {
		return gzip.NewReader(r)
	})
}

// CreateTarZst packs the source directory into a zstd-compressed tarball.
func (s *Service) CreateTarZst(source, output string) error {
	return s.createTar(source, output, func(w io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(w)
	})
}

// ExtractTarZst unpacks a zstd-compressed tarball into destination.
func (s *Service) ExtractTarZst(archive, destination string) error {
	return s.extractTar(archive, destination, func(r io.Reader) (io.ReadCloser, error) {
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	})
}

func (s *Service) createTar(source, output string, compress func(io.Writer) (io.WriteCloser, error)) error {
	srcAbs, files, err := s.collectArchiveFiles(source)
	if err != nil {
		return err
	}
	outAbs, err := s.ResolveAbsolute(output)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outAbs), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directories for %s: %w", output, err)
	}

	out, err := os.Create(outAbs)
	if err != nil {
		return fmt.Errorf("failed to create archive %s: %w", output, err)
	}
	defer out.Close()

	cw, err := compress(out)
	if err != nil {
		return fmt.Errorf("failed to create archive %s: %w", output, err)
	}
	tw := tar.NewWriter(cw)

	for _, rel := range files {
		abs := filepath.Join(srcAbs, rel)
		info, err := os.Stat(abs)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", rel, err)
		}
		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", rel, err)
		}
		header.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(header); err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", rel, err)
		}
		in, err := os.Open(abs)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", rel, err)
		}
		if _, err := io.Copy(tw, in); err != nil {
			in.Close()
			return fmt.Errorf("failed to add %s to archive: %w", rel, err)
		}
		in.Close()
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive %s: %w", output, err)
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive %s: %w", output, err)
	}
	return nil
}

func (s *Service) extractTar(archive, destination string, decompress func(io.Reader) (io.ReadCloser, error)) error {
	arcAbs, err := s.ResolveAbsolute(archive)
	if err != nil {
		return err
	}
	dstAbs, err := s.ResolveAbsolute(destination)
	if err != nil {
		return err
	}

	in, err := os.Open(arcAbs)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", archive, err)
	}
	defer in.Close()

	dr, err := decompress(in)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", archive, err)
	}
	defer dr.Close()

	tr := tar.NewReader(dr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read archive %s: %w", archive, err)
		}
		target, err := memberPath(dstAbs, header.Name)
		if err != nil {
			return err
		}
		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to extract %s: %w", header.Name, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("failed to extract %s: %w", header.Name, err)
			}
			if err := writeExtracted(target, tr, os.FileMode(header.Mode)); err != nil {
				return fmt.Errorf("failed to extract %s: %w", header.Name, err)
			}
		}
	}
}

// collectArchiveFiles resolves source and lists its files, source-relative
// and sorted for stable archives.
func (s *Service) collectArchiveFiles(source string) (string, []string, error) {
	srcAbs, err := s.ResolveAbsolute(source)
	if err != nil {
		return "", nil, err
	}
	if info, err := os.Stat(srcAbs); err != nil {
		if os.IsNotExist(err) {
			return "", nil, pathError(ErrNotFound, source)
		}
		return "", nil, err
	} else if !info.IsDir() {
		return "", nil, pathError(ErrNotADirectory, source)
	}

	var mu sync.Mutex
	files := []string{}
	conf := fastwalk.Config{Follow: false}
	err = fastwalk.Walk(&conf, srcAbs, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcAbs, p)
		if err != nil {
			return nil
		}
		mu.Lock()
		files = append(files, rel)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to scan %s: %w", source, err)
	}
	sort.Strings(files)
	return srcAbs, files, nil
}

// memberPath joins an archive member name onto the destination and rejects
// members that would land outside it.
func memberPath(dstAbs, name string) (string, error) {
	target := filepath.Join(dstAbs, filepath.FromSlash(name))
	if target != dstAbs && !strings.HasPrefix(target, dstAbs+string(filepath.Separator)) {
		return "", pathError(ErrOutsideRoot, name)
	}
	return target, nil
}

func writeExtracted(target string, in io.Reader, mode os.FileMode) error {
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
