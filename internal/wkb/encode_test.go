package wkb

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/woozymasta/wkbtext/internal/geo"
)

func TestMarshalHexSample(t *testing.T) {
	const sample = "0101000020E61000003333333333935AC0C442AD69DEB13F40"
	g, err := DecodeHex(sample)
	require.NoError(t, err)

	got, err := MarshalHex(g)
	require.NoError(t, err)
	require.Equal(t, sample, got)
}

func TestMarshalRoundTrip(t *testing.T) {
	encoders := []struct {
		desc      string
		opts      []EncodeOption
		keepsSRID bool
		firstByte byte
	}{
		{desc: "ewkb ndr", keepsSRID: true, firstByte: NDR},
		{desc: "ewkb xdr", opts: []EncodeOption{WithByteOrder(binary.BigEndian)}, keepsSRID: true, firstByte: XDR},
		{desc: "iso ndr", opts: []EncodeOption{WithFlavor(FlavorISO)}, firstByte: NDR},
		{desc: "iso xdr", opts: []EncodeOption{WithFlavor(FlavorISO), WithByteOrder(binary.BigEndian)}, firstByte: XDR},
	}
	for _, tc := range loadCases(t) {
		want, err := DecodeHex(tc.Hex)
		require.NoError(t, err, tc.Name)
		for _, enc := range encoders {
			t.Run(tc.Name+"/"+enc.desc, func(t *testing.T) {
				b, err := Marshal(want, enc.opts...)
				require.NoError(t, err)
				require.Equal(t, enc.firstByte, b[0])

				got, err := Decode(b)
				require.NoError(t, err)
				if enc.keepsSRID {
					require.True(t, geo.Equal(want, got))
				} else {
					require.True(t, geo.EqualShape(want, got))
					_, ok := got.SRID()
					require.False(t, ok)
				}
			})
		}
	}
}

func TestMarshalNaNPoint(t *testing.T) {
	nan := math.NaN()
	for _, layout := range []geo.Layout{geo.XY, geo.XYZ, geo.XYM, geo.XYZM} {
		t.Run(layout.String(), func(t *testing.T) {
			c := make(geo.Coord, layout.Stride())
			for i := range c {
				c[i] = nan
			}
			want, err := geo.NewPoint(layout, c)
			require.NoError(t, err)

			b, err := Marshal(want)
			require.NoError(t, err)
			got, err := Decode(b)
			require.NoError(t, err)
			require.True(t, geo.Equal(want, got))
			require.True(t, got.Empty())
		})
	}
}

func TestMarshalTypeCodes(t *testing.T) {
	pz, err := geo.NewPoint(geo.XYZ, geo.Coord{1, 2, 3})
	require.NoError(t, err)

	b, err := Marshal(pz.WithSRID(4326))
	require.NoError(t, err)
	require.Equal(t, flagZ|flagSRID|1, binary.LittleEndian.Uint32(b[1:5]))
	require.Equal(t, uint32(4326), binary.LittleEndian.Uint32(b[5:9]))
	require.Len(t, b, 9+3*8)

	b, err = Marshal(pz.WithSRID(4326), WithFlavor(FlavorISO))
	require.NoError(t, err)
	require.Equal(t, uint32(1001), binary.LittleEndian.Uint32(b[1:5]))
	require.Len(t, b, 5+3*8)
}

func TestMarshalInvalid(t *testing.T) {
	_, err := Marshal(geo.Geometry{})
	require.ErrorIs(t, err, ErrUnsupportedType)
}
