package wkb

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/woozymasta/wkbtext/internal/geo"
)

// ErrMalformedHex is returned for odd-length input or non-hex digits.
var ErrMalformedHex = errors.New("wkb: malformed hex string")

// DecodeHex decodes a hex-encoded WKB string such as the ones PostGIS
// prints. Surrounding whitespace and a leading 0x or \x are ignored.
func DecodeHex(s string) (geo.Geometry, error) {
	b, err := UnhexString(s)
	if err != nil {
		return geo.Geometry{}, err
	}
	return Decode(b)
}

// UnhexString converts s to bytes, reporting ErrMalformedHex on failure.
func UnhexString(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"0x", "0X", `\x`} {
		if strings.HasPrefix(s, prefix) {
			s = s[len(prefix):]
			break
		}
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		var invalid hex.InvalidByteError
		if errors.As(err, &invalid) {
			return nil, fmt.Errorf("%w: invalid digit %q", ErrMalformedHex, rune(invalid))
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedHex, err)
	}
	return b, nil
}
