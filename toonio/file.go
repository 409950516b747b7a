// Package toonio opens and creates TOON-TAB files on disk, with
// transparent gzip compression for paths ending in .gz.
package toonio

import (
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Neumenon/toontab/toon"
)

func isGzipPath(path string) bool {
	return strings.HasSuffix(path, ".gz")
}

// OpenInput opens a text file for reading, ungzipping when the path
// ends in .gz. A path that does not exist maps to toon.ErrNotFound.
func OpenInput(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(toon.ErrNotFound, "input %s", path)
		}
		return nil, errors.Wrapf(err, "open %s", path)
	}

	if !isGzipPath(path) {
		return f, nil
	}

	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "gzip %s", path)
	}
	logrus.WithField("path", path).Debug("reading gzip-compressed input")
	return &gzipReadCloser{zr: zr, f: f}, nil
}

// CreateOutput creates (or truncates) a text file for writing,
// gzipping when the path ends in .gz.
func CreateOutput(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s", path)
	}

	if !isGzipPath(path) {
		return f, nil
	}
	logrus.WithField("path", path).Debug("writing gzip-compressed output")
	return &gzipWriteCloser{zw: gzip.NewWriter(f), f: f}, nil
}

// ReadAll slurps a whole input file as text.
func ReadAll(path string) (string, error) {
	r, err := OpenInput(path)
	if err != nil {
		return "", err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return "", errors.Wrapf(err, "read %s", path)
	}
	return string(data), nil
}

// WriteAll writes text to an output file in one pass.
func WriteAll(path, text string) error {
	w, err := CreateOutput(path)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, text); err != nil {
		w.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	return w.Close()
}

type gzipReadCloser struct {
	zr *gzip.Reader
	f  *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) { return g.zr.Read(p) }

func (g *gzipReadCloser) Close() error {
	if err := g.zr.Close(); err != nil {
		g.f.Close()
		return err
	}
	return g.f.Close()
}

type gzipWriteCloser struct {
	zw *gzip.Writer
	f  *os.File
}

func (g *gzipWriteCloser) Write(p []byte) (int, error) { return g.zw.Write(p) }

func (g *gzipWriteCloser) Close() error {
	if err := g.zw.Close(); err != nil {
		g.f.Close()
		return err
	}
	return g.f.Close()
}
