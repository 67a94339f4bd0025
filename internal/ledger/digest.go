package ledger

import (
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"

	apperrors "github.com/user/cartilage_analyzer_go/internal/errors"
)

// Digest is the xxhash64 fingerprint of data, as 16 hex digits.
func Digest(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// DigestFile fingerprints a file without loading it whole.
func DigestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// Failed fills the failure fields of e from err.
func (e Entry) Failed(err error) Entry {
	e.Status = StatusFailed
	e.Message = err.Error()
	var ae *apperrors.Error
	if apperrors.As(err, &ae) {
		e.ErrorKind = string(ae.Kind)
		e.ErrorCode = ae.Code
	}
	return e
}
