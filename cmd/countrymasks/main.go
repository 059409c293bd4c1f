// Package main provides the country mask generator CLI.
//
// Usage:
//
//	countrymasks generate --geojson countrymasks.geojson --grid-resolution 5arcmin --fractional-mask
//	countrymasks area countrymasks_fractional_5arcmin.nc
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"go.ngs.io/countrymasks/internal/adapter/geometry"
	"go.ngs.io/countrymasks/internal/adapter/raster"
	"go.ngs.io/countrymasks/internal/adapter/store/geojson"
	"go.ngs.io/countrymasks/internal/adapter/store/maskfile"
	"go.ngs.io/countrymasks/internal/config"
	"go.ngs.io/countrymasks/internal/domain"
	"go.ngs.io/countrymasks/internal/usecase"
)

const version = "0.1.0"

var (
	app      = kingpin.New("countrymasks", "Rasterize country boundaries into gridded NetCDF masks.")
	logLevel = app.Flag("log-level", "Log level (debug, info, warn, error).").Default("info").Envar("LOG_LEVEL").String()

	generateCmd      = app.Command("generate", "Generate mask datasets from a GeoJSON file.")
	geojsonPath      = generateCmd.Flag("geojson", "Country boundaries (FeatureCollection).").Default("countrymasks.geojson").String()
	gridResolution   = generateCmd.Flag("grid-resolution", "Grid resolution.").Default(domain.Res05Deg.Name).Enum(domain.ResolutionNames()...)
	datasetVersion   = generateCmd.Flag("version", "Dataset version (default: from the GeoJSON properties).").String()
	fractionalMask   = generateCmd.Flag("fractional-mask", "Write the fractional mask dataset.").Bool()
	binaryMask       = generateCmd.Flag("binary-mask", "Write the binary mask dataset (cells touched by a polygon).").Bool()
	binaryExclusive  = generateCmd.Flag("binary-exclusive-mask", "Write the binary mask dataset (cells whose centre is inside a polygon).").Bool()
	forceExclusivity = generateCmd.Flag("force-exclusivity", "Ensure every cell of a binary dataset belongs to one country at most.").Bool()
	labelMask        = generateCmd.Flag("label-mask", "Add an integer label array to binary datasets.").Bool()
	outDir           = generateCmd.Flag("out-dir", "Output directory.").Default(".").String()
	configPath       = generateCmd.Flag("config", "TOML file overriding the repository URL and country groups.").String()
	subgrid          = generateCmd.Flag("subgrid", "Fixed supersampling size for boundary cells (0 derives it from polygon area).").Default("0").Int()
	progress         = generateCmd.Flag("progress", "Show a progress bar.").Default("true").Bool()

	areaCmd      = app.Command("area", "Print the area of every country in a mask file.")
	areaMaskFile = areaCmd.Arg("mask-file", "Mask dataset (fractional masks give exact areas).").Required().String()
	areaJSON     = areaCmd.Flag("json", "Print JSON instead of a table.").Bool()

	versionCmd = app.Command("version", "Show version information.")
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Warnf("Warning: %v", err)
	}

	command := kingpin.MustParse(app.Parse(os.Args[1:]))
	if err := config.ConfigureLogging(*logLevel); err != nil {
		app.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch command {
	case generateCmd.FullCommand():
		if err := runGenerate(ctx); err != nil {
			var inv *usecase.InvariantError
			if errors.As(err, &inv) {
				log.Fatalf("Mask invariant broken, dataset not written: %v", err)
			}
			log.Fatalf("Generation failed: %v", err)
		}
	case areaCmd.FullCommand():
		if err := runArea(os.Stdout); err != nil {
			log.Fatalf("Area computation failed: %v", err)
		}
	case versionCmd.FullCommand():
		fmt.Printf("countrymasks version %s\n", version)
	}
}

func runGenerate(ctx context.Context) error {
	type output struct {
		enabled bool
		kind    domain.Kind
	}
	outputs := []output{
		{*binaryMask, domain.KindBinary},
		{*binaryExclusive, domain.KindBinaryExclusive},
		{*fractionalMask, domain.KindFractional},
	}
	requested := false
	for _, o := range outputs {
		requested = requested || o.enabled
	}
	if !requested {
		return fmt.Errorf("nothing to do: pass --binary-mask, --binary-exclusive-mask and/or --fractional-mask")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	res, err := domain.ParseResolution(*gridResolution)
	if err != nil {
		return err
	}
	collection, err := geojson.Load(*geojsonPath)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"file":     *geojsonPath,
		"features": len(collection.Features),
		"version":  collection.Version,
	}).Info("loaded country boundaries")

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var bar io.Writer
	if *progress {
		bar = os.Stderr
	}
	var opts []raster.Option
	if *subgrid > 0 {
		opts = append(opts, raster.WithSubgrid(*subgrid))
	}
	uc := usecase.NewGenerateUseCase(geometry.NewGEOSBuffer(), bar, opts...)

	for _, o := range outputs {
		if !o.enabled {
			continue
		}
		binary := !o.kind.Fractional()
		set, err := uc.Execute(ctx, usecase.GenerateRequest{
			Collection:       collection,
			Resolution:       res,
			Kind:             o.kind,
			Version:          *datasetVersion,
			Repository:       cfg.Repository,
			Groups:           cfg.Groups,
			ForceExclusivity: binary && *forceExclusivity,
			LabelMask:        binary && *labelMask,
		})
		if err != nil {
			return fmt.Errorf("%s masks: %w", o.kind, err)
		}

		path := filepath.Join(*outDir, maskfile.FileName(o.kind, res.Name))
		if err := maskfile.Write(path, set); err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"file":      path,
			"countries": len(set.Countries),
			"groups":    len(set.Groups),
		}).Info("wrote mask dataset")
	}
	return nil
}

func runArea(w io.Writer) error {
	set, err := maskfile.Read(*areaMaskFile)
	if err != nil {
		return err
	}
	if !set.Kind.Fractional() {
		log.Warn("binary mask file: areas count every touched cell in full")
	}

	countries := usecase.NewLookupUseCase(set).Countries()
	if *areaJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(countries)
	}

	for _, c := range countries {
		if _, err := fmt.Fprintf(w, "%-6s %14.1f km2  %s\n", c.Code, c.AreaKm2, c.Name); err != nil {
			return err
		}
	}
	return nil
}
