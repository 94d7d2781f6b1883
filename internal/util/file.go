package util

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// CreateCBZ packs the page files into a comic archive. Pages are stored in
// lexical order, which matches the page_NNN naming of the downloader.
func CreateCBZ(files []string, output string) (err error) {
	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("cbz: %w", err)
	}
	defer func() {
		err = errors.Join(err, out.Close())
	}()

	z := zip.NewWriter(out)
	defer func() {
		err = errors.Join(err, z.Close())
	}()

	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	for _, file := range sorted {
		if err := addFileToZip(z, file); err != nil {
			return fmt.Errorf("cbz %s: %w", filepath.Base(file), err)
		}
	}

	return nil
}

func addFileToZip(z *zip.Writer, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}

	header.Name = filepath.Base(file)
	header.Method = zip.Store // images are already compressed

	w, err := z.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(w, f)

	return err
}
