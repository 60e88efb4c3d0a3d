package upload

import (
	"fmt"
	"math/rand/v2"
	"path"
	"strconv"
	"strings"
	"time"
)

const defaultExtension = "jpg"

// ObjectKey derives {ownerID}/{epochMillis}_{token}.{ext}. The owner id is the
// first path segment so storage policies can scope access per owner.
//
// Keys are not checked for uniqueness: two calls in the same millisecond that
// draw the same token collide. CreateObject refuses to overwrite, so such a
// collision surfaces as a failed write rather than a lost photo.
func ObjectKey(ownerID, fileName string, now time.Time, token string) string {
	return fmt.Sprintf("%s/%d_%s.%s", ownerID, now.UnixMilli(), token, extension(fileName))
}

// extension returns the lowercased extension of name, or "jpg".
func extension(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if ext == "" {
		return defaultExtension
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return defaultExtension
		}
	}
	return ext
}

// randomToken returns a base36 random string.
func randomToken() string {
	return strconv.FormatUint(rand.Uint64(), 36)
}
