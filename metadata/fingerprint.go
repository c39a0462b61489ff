package metadata

import (
	"encoding/hex"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"

	"github.com/teranos/mirror/errors"
)

// Fingerprint returns the hex blake2b-256 digest of the file content.
//
// The fingerprint is a true content hash: a header whose bytes are unchanged keeps
// its fingerprint even if its modification time moves.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.WrapIO(err, path)
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", errors.Wrap(err, "create blake2b hash")
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.WrapIO(err, path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
