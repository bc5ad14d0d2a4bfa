package wkt_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	gowkt "github.com/twpayne/go-geom/encoding/wkt"

	"github.com/woozymasta/wkbtext/internal/geo"
	"github.com/woozymasta/wkbtext/internal/geomconv"
	"github.com/woozymasta/wkbtext/internal/wkt"
)

func TestGoGeomAgreement(t *testing.T) {
	for _, g := range []geom.T{
		geom.NewPointFlat(geom.XY, []float64{-106.3, 31.6948}),
		geom.NewPointFlat(geom.XYZM, []float64{0, 5, -10, 15}),
		geom.NewLineStringFlat(geom.XYM, []float64{0, 0, 200, 0.1, -1, -20}),
		geom.NewPolygonFlat(geom.XY, []float64{0, 0, 1, -1, 2, 0, 0, 0}, []int{8}),
		geom.NewMultiLineStringFlat(geom.XY, []float64{0, 0, 1, 1, 2, 2, 3, 3}, []int{4, 8}),
		geom.NewMultiPolygonFlat(geom.XYZ,
			[]float64{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 0, 0},
			[][]int{{12}}),
	} {
		ref, err := gowkt.Marshal(g)
		require.NoError(t, err)

		t.Run(ref, func(t *testing.T) {
			want, err := geomconv.FromGeom(g)
			require.NoError(t, err)

			got, err := wkt.Unmarshal(ref)
			require.NoError(t, err)
			require.True(t, geo.Equal(want, got), "parsed %s", wkt.Marshal(got))

			back, err := gowkt.Unmarshal(wkt.Marshal(want))
			require.NoError(t, err)
			fromRef, err := geomconv.FromGeom(back)
			require.NoError(t, err)
			require.True(t, geo.Equal(want, fromRef))
		})
	}
}
