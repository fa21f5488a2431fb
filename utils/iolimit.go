package utils

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var ErrIOLimitReached = fmt.Errorf("read size limit reached")

func ReadAllLimit(r io.Reader, n int) ([]byte, error) {
	limit := int(n + 1)
	buf, err := io.ReadAll(io.LimitReader(r, int64(limit)))
	if err != nil {
		return buf, err
	}
	if len(buf) >= limit {
		return buf[:limit-1], ErrIOLimitReached
	}
	return buf, nil
}

// CopyLimit copies up to `limit+1`, if it copies more than `limit`, it returns ErrIOLimitReached
func CopyLimit(dst io.Writer, src io.Reader, limit int64) (written int64, err error) {
	n, err := io.CopyN(dst, src, limit+1)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("copying: %w", err)
	}

	if n > limit {
		return n, ErrIOLimitReached
	}

	return n, nil
}

// CopyToTemp writes at most limit bytes of src into a new temp file and
// returns its path. Nothing is left on disk when it fails.
//
// It is the caller's responsibility to remove the file.
func CopyToTemp(src io.Reader, limit int64) (string, error) {
	tempFile, err := os.CreateTemp("", "yuzu-*")
	if err != nil {
		return "", fmt.Errorf("making temp file: %w", err)
	}
	defer tempFile.Close()

	_, err = CopyLimit(tempFile, src, limit)
	if err != nil {
		os.Remove(tempFile.Name())
		return "", fmt.Errorf("writing to the temp file: %w", err)
	}

	return tempFile.Name(), nil
}
