package compress

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"strings"
)

// ZipReader reads the first CSV file of a ZIP archive.
type ZipReader struct {
	current io.ReadCloser
}

// NewZipReader buffers the archive and opens its first .csv entry.
func NewZipReader(r io.ReadCloser) (*ZipReader, error) {
	defer r.Close()

	buf := &bytes.Buffer{}
	if _, err := io.Copy(buf, r); err != nil {
		return nil, err
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		return nil, err
	}

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(f.Name), ".csv") {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			return &ZipReader{current: rc}, nil
		}
	}

	return nil, errors.New("CSV file not found in the ZIP archive")
}

func (z *ZipReader) Read(p []byte) (int, error) {
	return z.current.Read(p)
}

// Close closes the current CSV file.
func (z *ZipReader) Close() error {
	return z.current.Close()
}

// ZipWriter packs everything written to it into a single ZIP entry.
type ZipWriter struct {
	zipWriter *zip.Writer
	file      io.Writer
}

func NewZipWriter(w io.Writer, fileName string) (*ZipWriter, error) {
	zw := zip.NewWriter(w)
	f, err := zw.Create(fileName)
	if err != nil {
		return nil, err
	}
	return &ZipWriter{
		zipWriter: zw,
		file:      f,
	}, nil
}

func (z *ZipWriter) Write(p []byte) (int, error) {
	return z.file.Write(p)
}

// Close writes the central directory; the underlying writer stays open.
func (z *ZipWriter) Close() error {
	return z.zipWriter.Close()
}
