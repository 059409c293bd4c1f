package usecase

import (
	"context"
	"fmt"
	"io"

	"github.com/cheggaaa/pb"
	log "github.com/sirupsen/logrus"

	"go.ngs.io/countrymasks/internal/adapter/raster"
	"go.ngs.io/countrymasks/internal/adapter/store/geojson"
	"go.ngs.io/countrymasks/internal/domain"
)

// MaskBuilder rasterizes country features onto a grid, one country at a time.
type MaskBuilder struct {
	grid       domain.Grid
	rasterizer *raster.Rasterizer
	progress   io.Writer // Nil disables the progress bar.
}

// NewMaskBuilder creates a builder. The rasterizer is only needed for fractional masks.
func NewMaskBuilder(grid domain.Grid, rasterizer *raster.Rasterizer) *MaskBuilder {
	return &MaskBuilder{
		grid:       grid,
		rasterizer: rasterizer,
	}
}

// WithProgress enables a progress bar written to w.
func (b *MaskBuilder) WithProgress(w io.Writer) *MaskBuilder {
	b.progress = w
	return b
}

// BuildBinary burns every feature as a 0/1 mask. With allTouched every cell
// the polygon touches is marked; otherwise only cells whose centre is inside.
func (b *MaskBuilder) BuildBinary(ctx context.Context, features []geojson.Feature, allTouched bool) ([]*domain.CountryMask, error) {
	return b.build(ctx, features, "binary", func(f geojson.Feature) (*domain.Mask, error) {
		return raster.Binary(f.Geometry, b.grid, allTouched), nil
	})
}

// BuildFractional computes per-cell covered fractions for every feature.
func (b *MaskBuilder) BuildFractional(ctx context.Context, features []geojson.Feature) ([]*domain.CountryMask, error) {
	if b.rasterizer == nil {
		return nil, fmt.Errorf("fractional masks require a rasterizer")
	}
	return b.build(ctx, features, "fractional", func(f geojson.Feature) (*domain.Mask, error) {
		return b.rasterizer.Fractional(f.Geometry, b.grid)
	})
}

func (b *MaskBuilder) build(ctx context.Context, features []geojson.Feature, label string, burn func(geojson.Feature) (*domain.Mask, error)) ([]*domain.CountryMask, error) {
	var bar *pb.ProgressBar
	if b.progress != nil {
		bar = pb.New(len(features)).Prefix(label + " ")
		bar.Output = b.progress
		bar.ShowCounters = true
		bar.ShowTimeLeft = true
		bar.Start()
		defer bar.Finish()
	}

	out := make([]*domain.CountryMask, 0, len(features))
	for _, f := range features {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		m, err := burn(f)
		if err != nil {
			return nil, fmt.Errorf("failed to rasterize %s: %w", f.Code, err)
		}
		log.WithFields(log.Fields{
			"code":  f.Code,
			"name":  f.Name,
			"cells": m.Count(),
		}).Debug("rasterized country")

		out = append(out, &domain.CountryMask{
			Code: f.Code,
			Name: f.Name,
			Note: f.Note,
			Mask: m,
		})
		if bar != nil {
			bar.Increment()
		}
	}
	return out, nil
}
