package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/woozymasta/wkbtext/internal/geo"
	"github.com/woozymasta/wkbtext/internal/geomconv"
	"github.com/woozymasta/wkbtext/internal/logger"
	"github.com/woozymasta/wkbtext/internal/wkb"
	"github.com/woozymasta/wkbtext/internal/wkt"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// defaultHex is a WGS84 point in EWKB.
const defaultHex = "0101000020E61000003333333333935AC0C442AD69DEB13F40"

// errLogged marks errors run has already logged with their input.
var errLogged = errors.New("conversion failed")

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Format    string `short:"f" long:"format"    env:"WKB_FORMAT"    description:"Output format" choice:"wkt" choice:"ewkt" choice:"geojson" choice:"yaml" default:"wkt"`
	Precision int    `short:"p" long:"precision" env:"WKB_PRECISION" description:"Maximum decimal digits in WKT output, -1 for shortest round-trip" default:"-1"`
	Verify    bool   `long:"verify"              env:"WKB_VERIFY"    description:"Cross-check every geometry against the go-geom EWKB codec"`

	Args struct {
		Hex []string `positional-arg-name:"HEX" description:"Hex encoded WKB, - reads from stdin"`
	} `positional-args:"yes"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	if err := run(opts, os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, errLogged) {
			os.Exit(1)
		}
		log.Fatal().Err(err).Msg("Failed to convert geometry")
	}
}

func run(opts Options, stdin io.Reader, stdout io.Writer) error {
	inputs, err := collectInputs(opts.Args.Hex, stdin)
	if err != nil {
		return err
	}

	geoms := make([]geo.Geometry, 0, len(inputs))
	for i, in := range inputs {
		g, err := wkb.DecodeHex(in)
		if err != nil {
			log.Error().
				Int("index", i).
				Str("input", in).
				Err(err).
				Msg("Failed to decode WKB")
			return fmt.Errorf("%w: input %d: %w", errLogged, i, err)
		}
		srid, _ := g.SRID()
		log.Debug().
			Int("index", i).
			Stringer("kind", g.Kind()).
			Stringer("layout", g.Layout()).
			Int32("srid", srid).
			Int("coords", g.NumCoords()).
			Msg("Decoded geometry")

		if opts.Verify {
			switch err := geomconv.Verify(g); {
			case errors.Is(err, geomconv.ErrUnsupported):
				log.Warn().
					Int("index", i).
					Err(err).
					Msg("Skipped go-geom cross-check")
			case err != nil:
				log.Error().
					Int("index", i).
					Str("input", in).
					Err(err).
					Msg("go-geom cross-check failed")
				return fmt.Errorf("%w: input %d: %w", errLogged, i, err)
			}
		}
		geoms = append(geoms, g)
	}

	switch opts.Format {
	case "geojson", "yaml":
		fc := geo.NewFeatureCollection(geoms...)
		var data []byte
		if opts.Format == "yaml" {
			data, err = yaml.Marshal(fc)
		} else {
			data, err = json.MarshalIndent(fc, "", "  ")
		}
		if err != nil {
			return fmt.Errorf("marshal %s: %w", opts.Format, err)
		}
		_, err = fmt.Fprintln(stdout, strings.TrimRight(string(data), "\n"))
		return err
	}

	encOpts := []wkt.EncodeOption{wkt.WithPrecision(opts.Precision)}
	if opts.Format == "ewkt" {
		encOpts = append(encOpts, wkt.WithSRID())
	}
	enc := wkt.NewEncoder(encOpts...)
	for _, g := range geoms {
		if _, err := fmt.Fprintln(stdout, enc.Encode(g)); err != nil {
			return err
		}
	}
	return nil
}

// collectInputs expands "-" into the whitespace separated words of stdin.
// With no arguments the built-in sample is used.
func collectInputs(args []string, stdin io.Reader) ([]string, error) {
	if len(args) == 0 {
		return []string{defaultHex}, nil
	}
	var out []string
	for _, a := range args {
		if a != "-" {
			out = append(out, a)
			continue
		}
		sc := bufio.NewScanner(stdin)
		sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
		sc.Split(bufio.ScanWords)
		for sc.Scan() {
			out = append(out, sc.Text())
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
	}
	return out, nil
}
