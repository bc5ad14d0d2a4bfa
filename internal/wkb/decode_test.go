package wkb

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/woozymasta/wkbtext/internal/geo"
	"github.com/woozymasta/wkbtext/internal/wkt"
)

type decodeCase struct {
	Name string `yaml:"name"`
	Hex  string `yaml:"hex"`
	WKT  string `yaml:"wkt"`
	SRID *int32 `yaml:"srid"`
}

func loadCases(t *testing.T) []decodeCase {
	t.Helper()
	data, err := os.ReadFile("testdata/decode.yaml")
	require.NoError(t, err)
	var cases []decodeCase
	require.NoError(t, yaml.Unmarshal(data, &cases))
	require.NotEmpty(t, cases)
	return cases
}

func mustUnhex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestDecodeSample(t *testing.T) {
	g, err := DecodeHex("0101000020E61000003333333333935AC0C442AD69DEB13F40")
	require.NoError(t, err)

	require.Equal(t, geo.KindPoint, g.Kind())
	require.Equal(t, geo.XY, g.Layout())
	srid, ok := g.SRID()
	require.True(t, ok)
	require.Equal(t, geo.SRIDWGS84, srid)

	coords := g.Coords()
	require.Len(t, coords, 1)
	require.InDelta(t, -106.3, coords[0][0], 1e-12)
	require.InDelta(t, 31.6948, coords[0][1], 1e-12)

	text := wkt.Marshal(g)
	require.True(t, strings.HasPrefix(text, "POINT ("), text)
	require.Equal(t, text, wkt.Marshal(g))
}

func TestDecodeGolden(t *testing.T) {
	for _, tc := range loadCases(t) {
		t.Run(tc.Name, func(t *testing.T) {
			g, err := DecodeHex(tc.Hex)
			require.NoError(t, err)
			require.Equal(t, tc.WKT, wkt.Marshal(g))

			srid, ok := g.SRID()
			if tc.SRID == nil {
				require.False(t, ok)
			} else {
				require.True(t, ok)
				require.Equal(t, *tc.SRID, srid)
			}
		})
	}
}

func TestDecodeTruncated(t *testing.T) {
	for _, tc := range loadCases(t) {
		t.Run(tc.Name, func(t *testing.T) {
			b := mustUnhex(t, tc.Hex)
			for n := len(b) - 1; n >= 0; n-- {
				_, err := Decode(b[:n])
				require.ErrorIs(t, err, ErrTruncatedInput, "length %d of %d", n, len(b))
			}
		})
	}
}

func TestDecodeTrailingBytes(t *testing.T) {
	for _, tc := range loadCases(t) {
		t.Run(tc.Name, func(t *testing.T) {
			b := append(mustUnhex(t, tc.Hex), 0x00)
			_, err := Decode(b)
			require.ErrorIs(t, err, ErrTruncatedInput)
		})
	}
}

func TestDecodeInvalidByteOrder(t *testing.T) {
	for _, tc := range loadCases(t) {
		t.Run(tc.Name, func(t *testing.T) {
			b := mustUnhex(t, tc.Hex)
			for _, marker := range []byte{0x02, 0x30, 0xff} {
				b[0] = marker
				_, err := Decode(b)
				require.ErrorIs(t, err, ErrInvalidByteOrder)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	testCases := []struct {
		desc string
		hex  string
		err  error
	}{
		{
			desc: "empty input",
			hex:  "",
			err:  ErrTruncatedInput,
		},
		{
			desc: "header only",
			hex:  "01010000",
			err:  ErrTruncatedInput,
		},
		{
			desc: "geometry collection",
			hex:  "010700000000000000",
			err:  ErrUnsupportedType,
		},
		{
			desc: "zero type",
			hex:  "0100000000",
			err:  ErrUnsupportedType,
		},
		{
			desc: "type 8",
			hex:  "0108000000",
			err:  ErrUnsupportedType,
		},
		{
			desc: "iso code above zm",
			hex:  "01A10F0000",
			err:  ErrUnsupportedType,
		},
		{
			desc: "nested invalid byte order",
			hex:  "01040000000100000005010000000000000000000000000000000000000000",
			err:  ErrInvalidByteOrder,
		},
		{
			desc: "nested unsupported type",
			hex:  "0104000000010000000107000000",
			err:  ErrUnsupportedType,
		},
		{
			desc: "count exceeds input",
			hex:  "0102000000FFFFFFFF",
			err:  ErrTruncatedInput,
		},
		{
			desc: "srid flag without srid",
			hex:  "0101000020E610",
			err:  ErrTruncatedInput,
		},
		{
			desc: "linestring with one point",
			hex:  "010200000001000000000000000000F03F000000000000F03F",
			err:  geo.ErrInvalidGeometry,
		},
		{
			desc: "unclosed ring",
			hex: "01030000000100000004000000" +
				"00000000000000000000000000000000" +
				"000000000000F03F0000000000000000" +
				"000000000000F03F000000000000F03F" +
				"0000000000000000000000000000F03F",
			err: geo.ErrInvalidGeometry,
		},
		{
			desc: "multipoint holding a linestring",
			hex:  "0104000000010000000102000000" + "00000000",
			err:  geo.ErrInvalidGeometry,
		},
		{
			desc: "multipoint xy holding a point z",
			hex:  "01040000000100000001010000800000000000000000000000000000000000000000000000000000",
			err:  geo.ErrInvalidGeometry,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := Decode(mustUnhex(t, tc.hex))
			require.ErrorIs(t, err, tc.err)
		})
	}
}

func TestDecodeHexInput(t *testing.T) {
	const sample = "0101000020E61000003333333333935AC0C442AD69DEB13F40"

	want, err := DecodeHex(sample)
	require.NoError(t, err)

	for _, in := range []string{
		"  " + sample + "\n",
		"0x" + sample,
		`\x` + sample,
		"0101000020e61000003333333333935ac0c442ad69deb13f40",
	} {
		g, err := DecodeHex(in)
		require.NoError(t, err, in)
		require.True(t, geo.Equal(want, g), in)
	}

	for _, in := range []string{
		"010",
		"01ZZ",
		"0101000020E6100000333333333393 5AC0C442AD69DEB13F40",
	} {
		_, err := DecodeHex(in)
		require.ErrorIs(t, err, ErrMalformedHex, in)
	}

	_, err = DecodeHex("")
	require.ErrorIs(t, err, ErrTruncatedInput)
}

func TestDecodeConcurrent(t *testing.T) {
	cases := loadCases(t)

	const workers = 32
	var wg sync.WaitGroup
	errs := make(chan error, 2*workers*len(cases))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, tc := range cases {
				g, err := DecodeHex(tc.Hex)
				if err != nil {
					errs <- err
					continue
				}
				if got := wkt.Marshal(g); got != tc.WKT {
					errs <- fmt.Errorf("%s: got %q, want %q", tc.Name, got, tc.WKT)
				}
				if _, err := Marshal(g); err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
