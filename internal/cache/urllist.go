package cache

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// WriteURLList writes urls to path, one URL per CSV record.
// An existing file is truncated first, so rerunning a stage never appends
// to stale rows.
func WriteURLList(afs afero.Fs, path string, urls []string) (err error) {
	f, err := afs.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("failed to create URL list %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close URL list %s: %w", path, cerr)
		}
	}()

	w := csv.NewWriter(f)
	for _, u := range urls {
		if err := w.Write([]string{u}); err != nil {
			return fmt.Errorf("failed to write URL list %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write URL list %s: %w", path, err)
	}
	return nil
}

// ReadURLList reads a URL list written by WriteURLList.
// The first field of every record is returned verbatim, in file order.
// Blank records are skipped.
func ReadURLList(afs afero.Fs, path string) ([]string, error) {
	f, err := afs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open URL list %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	urls := make([]string, 0)
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read URL list %s: %w", path, err)
		}
		if len(record) == 0 || strings.TrimSpace(record[0]) == "" {
			continue
		}
		urls = append(urls, record[0])
	}
	return urls, nil
}
