package usecase

import (
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"go.ngs.io/countrymasks/internal/domain"
)

// Tolerance absorbs float32 rounding when checking that fractions sum to at most 1.
const Tolerance = 1e-6

// InvariantError reports a mask cell that breaks a dataset invariant.
// The generation run must stop when one is returned.
type InvariantError struct {
	Mask   string
	Row    int
	Col    int
	Value  float64
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated in %s at cell (%d, %d): %s (value %g)", e.Mask, e.Row, e.Col, e.Reason, e.Value)
}

// AddGroupsBinary sets each group mask to the union of its member countries.
func AddGroupsBinary(s *domain.MaskSet, groups []domain.Group) {
	s.Groups = s.Groups[:0]
	for _, g := range groups {
		m := domain.NewMask(s.Grid, domain.Window{})
		forEachMember(s, g, func(c *domain.CountryMask) {
			c.Mask.Range(func(i, j int, _ float64) {
				m.Set(i, j, 1)
			})
		})
		s.Groups = append(s.Groups, &domain.GroupMask{Group: g, Mask: m})
	}
}

// AddWorldBinary sets the world mask to the union of every country and group mask.
func AddWorldBinary(s *domain.MaskSet) {
	world := make([]float32, s.Grid.Size())
	mark := func(m *domain.Mask) {
		m.Range(func(i, j int, _ float64) {
			world[i*s.Grid.Cols+j] = 1
		})
	}
	for _, c := range s.Countries {
		mark(c.Mask)
	}
	for _, g := range s.Groups {
		mark(g.Mask)
	}
	s.World = world
	sum, _, _ := worldStats(world, s.Grid.Cols)
	log.WithField("cells", int(sum)).Info("created world mask (binary)")
}

// NormalizeFractional builds the world mask of a fractional dataset and
// removes double counting along shared borders.
//
// The world mask is the cell-wise sum of all countries. Where it exceeds 1,
// every contributing country is divided by the sum so the cell totals exactly
// 1. Group masks are then rebuilt as the sum of their (rescaled) members.
// A group or world cell still above 1 yields an *InvariantError.
func NormalizeFractional(s *domain.MaskSet, groups []domain.Group) error {
	g := s.Grid
	world := make([]float32, g.Size())
	for _, c := range s.Countries {
		c.Mask.Range(func(i, j int, v float64) {
			k := i*g.Cols + j
			world[k] = float32(float64(world[k]) + v)
		})
	}

	if len(world) > 0 {
		_, lo, hi := worldStats(world, g.Cols)
		log.WithFields(log.Fields{
			"min": lo,
			"max": hi,
		}).Info("world mask range before normalization")
	}

	overlapping := 0
	for _, v := range world {
		if v > 1 {
			overlapping++
		}
	}

	if overlapping > 0 {
		rescaled := 0
		for _, c := range s.Countries {
			m := c.Mask
			m.Range(func(i, j int, v float64) {
				total := float64(world[i*g.Cols+j])
				if total <= 1 {
					return
				}
				after := v / total
				log.WithFields(log.Fields{
					"code":   c.Code,
					"row":    i,
					"col":    j,
					"total":  total,
					"before": v,
					"after":  after,
				}).Info("rescaled overlapping fraction")
				m.Set(i, j, after)
				rescaled++
			})
		}
		for k, v := range world {
			if v > 1 {
				world[k] = 1
			}
		}
		log.WithFields(log.Fields{
			"cells":  overlapping,
			"values": rescaled,
		}).Info("normalized overlapping cells")
	}

	if err := checkWorld(world, g); err != nil {
		return err
	}
	s.World = world

	s.Groups = s.Groups[:0]
	for _, grp := range groups {
		m := domain.NewMask(g, domain.Window{})
		forEachMember(s, grp, func(c *domain.CountryMask) {
			m.Add(c.Mask)
		})
		if err := checkAtMostOne(grp.Code, m); err != nil {
			return err
		}
		s.Groups = append(s.Groups, &domain.GroupMask{Group: grp, Mask: m})
	}
	return nil
}

func forEachMember(s *domain.MaskSet, g domain.Group, fn func(*domain.CountryMask)) {
	for _, code := range g.Members {
		c, ok := s.Country(code)
		if !ok {
			log.WithFields(log.Fields{
				"group":  g.Code,
				"member": code,
			}).Warn("group member not found in country masks, skipping")
			continue
		}
		fn(c)
	}
}

func checkWorld(world []float32, g domain.Grid) error {
	for k, v := range world {
		if float64(v) > 1+Tolerance {
			return &InvariantError{
				Mask:   "world",
				Row:    k / g.Cols,
				Col:    k % g.Cols,
				Value:  float64(v),
				Reason: "world fraction exceeds 1",
			}
		}
	}
	return nil
}

func checkAtMostOne(code string, m *domain.Mask) error {
	var err error
	m.Range(func(i, j int, v float64) {
		if err == nil && v > 1+Tolerance {
			err = &InvariantError{
				Mask:   code,
				Row:    i,
				Col:    j,
				Value:  v,
				Reason: "group fraction exceeds 1",
			}
		}
	})
	return err
}

// worldStats returns the sum, smallest positive value and maximum of a dense
// world mask, reducing one row at a time in float64.
func worldStats(world []float32, cols int) (sum, lo, hi float64) {
	row := make([]float64, cols)
	for start := 0; start+cols <= len(world); start += cols {
		for j, v := range world[start : start+cols] {
			row[j] = float64(v)
		}
		sum += floats.Sum(row)
		hi = math.Max(hi, floats.Max(row))
		if m := minPositive(row); m > 0 && (lo == 0 || m < lo) {
			lo = m
		}
	}
	return sum, lo, hi
}

func minPositive(values []float64) float64 {
	lo := 0.0
	for _, v := range values {
		if v > 0 && (lo == 0 || v < lo) {
			lo = v
		}
	}
	return lo
}
