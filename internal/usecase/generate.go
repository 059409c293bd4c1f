package usecase

import (
	"context"
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"

	"go.ngs.io/countrymasks/internal/adapter/raster"
	"go.ngs.io/countrymasks/internal/adapter/store/geojson"
	"go.ngs.io/countrymasks/internal/domain"
)

// GenerateRequest describes one mask dataset to build.
type GenerateRequest struct {
	Collection *geojson.Collection
	Resolution domain.Resolution
	Kind       domain.Kind

	// Optional overrides; empty values fall back to the collection and built-in defaults.
	Version    string
	Repository string
	Groups     []domain.Group

	// Binary datasets only.
	ForceExclusivity bool
	LabelMask        bool
}

// Validate checks if the request is valid.
func (r *GenerateRequest) Validate() error {
	if r.Collection == nil || len(r.Collection.Features) == 0 {
		return fmt.Errorf("no country features to rasterize")
	}
	if r.Resolution.Degrees <= 0 {
		return fmt.Errorf("grid resolution must be positive")
	}
	switch r.Kind {
	case domain.KindBinary, domain.KindBinaryExclusive:
	case domain.KindFractional:
		if r.ForceExclusivity || r.LabelMask {
			return fmt.Errorf("exclusivity and label masks apply to binary datasets only")
		}
	default:
		return fmt.Errorf("unknown mask kind %q", r.Kind)
	}
	return nil
}

// GenerateUseCase builds complete mask datasets from country boundaries.
type GenerateUseCase struct {
	shrinker raster.Shrinker
	opts     []raster.Option
	progress io.Writer
}

// NewGenerateUseCase creates a generator. The shrinker finds fully interior
// cells of fractional masks; it may be nil, in which case every touched cell
// is supersampled.
func NewGenerateUseCase(shrinker raster.Shrinker, progress io.Writer, opts ...raster.Option) *GenerateUseCase {
	return &GenerateUseCase{
		shrinker: shrinker,
		opts:     opts,
		progress: progress,
	}
}

// Execute rasterizes all countries and derives the group, world and label masks.
func (uc *GenerateUseCase) Execute(ctx context.Context, req GenerateRequest) (*domain.MaskSet, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	groups := req.Groups
	if groups == nil {
		groups = domain.DefaultGroups()
	}
	repository := req.Repository
	if repository == "" {
		repository = domain.Repository
	}
	version := req.Version
	if version == "" {
		version = req.Collection.Version
	}

	features := countryFeatures(req.Collection.Features, groups)
	grid := domain.NewGrid(req.Resolution.Degrees)

	log.WithFields(log.Fields{
		"kind":       req.Kind,
		"resolution": req.Resolution.Name,
		"countries":  len(features),
		"rows":       grid.Rows,
		"cols":       grid.Cols,
	}).Info("generating country masks")

	builder := NewMaskBuilder(grid, raster.NewRasterizer(uc.shrinker, uc.opts...))
	if uc.progress != nil {
		builder.WithProgress(uc.progress)
	}

	var (
		countries []*domain.CountryMask
		err       error
	)
	switch req.Kind {
	case domain.KindFractional:
		countries, err = builder.BuildFractional(ctx, features)
	default:
		countries, err = builder.BuildBinary(ctx, features, req.Kind == domain.KindBinary)
	}
	if err != nil {
		return nil, err
	}

	s := &domain.MaskSet{
		Grid:       grid,
		Resolution: req.Resolution.Name,
		Kind:       req.Kind,
		Source:     req.Collection.Source,
		Repository: repository,
		Version:    version,
		Note:       req.Kind.Note(),
		Countries:  countries,
	}
	s.SortCountries()

	if req.Kind.Fractional() {
		if err := NormalizeFractional(s, groups); err != nil {
			return nil, err
		}
		return s, nil
	}

	if req.ForceExclusivity {
		log.Info("forcing exclusivity of grid cells")
		if err := MakeExclusive(s); err != nil {
			return nil, err
		}
	}
	AddGroupsBinary(s, groups)
	AddWorldBinary(s)
	if req.LabelMask {
		AddLabelMask(s)
	}
	return s, nil
}

// countryFeatures drops features that stand for a group; groups are always
// rebuilt from their members.
func countryFeatures(features []geojson.Feature, groups []domain.Group) []geojson.Feature {
	isGroup := make(map[string]bool, len(groups))
	for _, g := range groups {
		isGroup[g.Code] = true
	}

	out := make([]geojson.Feature, 0, len(features))
	for _, f := range features {
		if isGroup[f.Code] {
			log.WithField("code", f.Code).Info("skipping group feature, group masks are built from members")
			continue
		}
		out = append(out, f)
	}
	return out
}
