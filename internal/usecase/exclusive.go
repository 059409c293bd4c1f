package usecase

import (
	log "github.com/sirupsen/logrus"

	"go.ngs.io/countrymasks/internal/domain"
)

// MakeExclusive assigns every cell to at most one country. Countries are
// visited in dataset order and keep the cells not already claimed by an
// earlier country.
func MakeExclusive(s *domain.MaskSet) error {
	g := s.Grid
	occupied := make([]uint8, g.Size())

	for _, c := range s.Countries {
		m := c.Mask
		total := m.Count()
		taken := 0
		m.Range(func(i, j int, _ float64) {
			if occupied[i*g.Cols+j] > 0 {
				m.Set(i, j, 0)
				taken++
			}
		})
		if taken > 0 {
			log.WithFields(log.Fields{
				"code":    c.Code,
				"cells":   taken,
				"of":      total,
				"percent": 100 * float64(taken) / float64(total),
			}).Info("grid cells already taken by another country, masked out")
		}

		var err error
		m.Range(func(i, j int, _ float64) {
			k := i*g.Cols + j
			occupied[k]++
			if err == nil && occupied[k] > 1 {
				err = &InvariantError{
					Mask:   c.Code,
					Row:    i,
					Col:    j,
					Value:  float64(occupied[k]),
					Reason: "cell claimed by more than one country",
				}
			}
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// AddLabelMask stores every country as one integer label array. Label k
// (1-based) is the k-th country in dataset order; 0 marks cells outside all
// countries. Masks are expected to be exclusive; where they overlap the later
// country wins.
func AddLabelMask(s *domain.MaskSet) {
	g := s.Grid
	labels := make([]int32, g.Size())
	names := make(map[int32]string, len(s.Countries))
	overwritten := 0

	for idx, c := range s.Countries {
		label := int32(idx + 1)
		names[label] = c.Code
		c.Mask.Range(func(i, j int, _ float64) {
			k := i*g.Cols + j
			if labels[k] != 0 {
				overwritten++
			}
			labels[k] = label
		})
	}

	if overwritten > 0 {
		log.WithField("cells", overwritten).Warn("countries overlap, label mask keeps the last country per cell")
	}
	s.Labels = labels
	s.LabelNames = names
}
