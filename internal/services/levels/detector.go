package levels

import (
	"fmt"
	"sort"

	"MarketPrep/internal/domain/models"
	domrepo "MarketPrep/internal/domain/repository"
	domsvc "MarketPrep/internal/domain/service"
)

// Config is the detector sensitivity configuration.
type Config struct {
	PivotWindow      int     `yaml:"pivot_window"`      // bars on each side of a pivot
	ClusterTolerance float64 `yaml:"cluster_tolerance"` // relative price distance, e.g. 0.02
	MinTouches       int     `yaml:"min_touches"`       // discard weaker clusters
	MaxLevels        int     `yaml:"max_levels"`        // 0 = unlimited
	ClassicPivots    bool    `yaml:"classic_pivots"`    // include floor-trader pivots
}

// DefaultConfig mirrors the dashboard's sensitivity: 5-bar swing window,
// 2% clustering, at least two confirming touches.
func DefaultConfig() Config {
	return Config{
		PivotWindow:      5,
		ClusterTolerance: 0.02,
		MinTouches:       2,
		MaxLevels:        8,
		ClassicPivots:    true,
	}
}

// Validate checks the configuration, failing with models.ErrInvalidConfig.
func (c Config) Validate() error {
	if c.PivotWindow <= 0 {
		return fmt.Errorf("%w: pivot window must be positive, got %d", models.ErrInvalidConfig, c.PivotWindow)
	}
	if c.ClusterTolerance <= 0 || c.ClusterTolerance >= 1 {
		return fmt.Errorf("%w: cluster tolerance must be in (0,1), got %v", models.ErrInvalidConfig, c.ClusterTolerance)
	}
	if c.MinTouches <= 0 {
		return fmt.Errorf("%w: min touches must be positive, got %d", models.ErrInvalidConfig, c.MinTouches)
	}
	return nil
}

// Detector clusters pivots into ranked support/resistance levels. Stateless;
// identical inputs and config always yield the identical ordered sequence.
type Detector struct {
	cfg Config
}

func NewDetector(cfg Config) *Detector { return &Detector{cfg: cfg} }

var _ domsvc.LevelDetector = (*Detector)(nil)

// Detect takes one or more series of the same symbol keyed by timeframe and
// returns levels ordered by strength descending, tie-broken by the most
// recent confirming pivot.
func (d *Detector) Detect(seriesByTF map[string]*models.Series) ([]models.Level, error) {
	if err := d.cfg.Validate(); err != nil {
		return nil, err
	}

	// Per-timeframe clustering first, deterministic timeframe order.
	tfs := make([]string, 0, len(seriesByTF))
	for tf := range seriesByTF {
		tfs = append(tfs, tf)
	}
	sort.Strings(tfs)

	candidates := make([]models.Level, 0, 16)
	for _, tf := range tfs {
		s := seriesByTF[tf]
		if s == nil || s.Len() == 0 {
			continue
		}
		last, _ := s.Last()
		pivots := FindPivots(s, d.cfg.PivotWindow, last.Close)
		if d.cfg.ClassicPivots {
			pivots = append(pivots, ClassicPivots(s, last.Close)...)
		}
		for _, lv := range d.cluster(pivots, tf) {
			if lv.Strength >= d.cfg.MinTouches {
				candidates = append(candidates, lv)
			}
		}
	}

	kept := d.mergeAcrossTimeframes(candidates)
	rank(kept)
	if d.cfg.MaxLevels > 0 && len(kept) > d.cfg.MaxLevels {
		kept = kept[:d.cfg.MaxLevels]
	}
	return kept, nil
}

// cluster groups pivots of one timeframe whose prices sit within the
// relative tolerance of the cluster head. Cluster price is the mean of its
// member pivots, strength the member count.
func (d *Detector) cluster(pivots []Pivot, tf string) []models.Level {
	if len(pivots) == 0 {
		return nil
	}
	byKind := map[models.LevelKind][]Pivot{}
	for _, p := range pivots {
		byKind[p.Kind] = append(byKind[p.Kind], p)
	}

	out := make([]models.Level, 0, len(pivots))
	for _, kind := range []models.LevelKind{models.LevelSupport, models.LevelResistance} {
		ps := byKind[kind]
		if len(ps) == 0 {
			continue
		}
		sort.Slice(ps, func(i, j int) bool {
			if ps[i].Price != ps[j].Price {
				return ps[i].Price < ps[j].Price
			}
			return ps[i].Time.Before(ps[j].Time)
		})

		cur := []Pivot{ps[0]}
		flush := func() {
			out = append(out, levelFromCluster(cur, kind, tf))
		}
		for _, p := range ps[1:] {
			head := cur[0].Price
			if (p.Price-head)/head < d.cfg.ClusterTolerance {
				cur = append(cur, p)
				continue
			}
			flush()
			cur = []Pivot{p}
		}
		flush()
	}
	return out
}

// mergeAcrossTimeframes folds levels from different timeframes that sit
// within tolerance of each other into one: the higher timeframe wins the
// price and origin, strengths are summed.
func (d *Detector) mergeAcrossTimeframes(candidates []models.Level) []models.Level {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Kind != candidates[j].Kind {
			return candidates[i].Kind < candidates[j].Kind
		}
		if candidates[i].Price != candidates[j].Price {
			return candidates[i].Price < candidates[j].Price
		}
		return tfRank(candidates[i].Timeframe) < tfRank(candidates[j].Timeframe)
	})

	out := make([]models.Level, 0, len(candidates))
	for _, lv := range candidates {
		if len(out) > 0 {
			prev := &out[len(out)-1]
			if prev.Kind == lv.Kind && prev.Timeframe != lv.Timeframe &&
				relDistance(prev.Price, lv.Price) < d.cfg.ClusterTolerance {
				keep, other := *prev, lv
				if tfRank(other.Timeframe) > tfRank(keep.Timeframe) {
					keep, other = other, keep
				}
				keep.Strength += other.Strength
				if other.LastTouch.After(keep.LastTouch) {
					keep.LastTouch = other.LastTouch
				}
				*prev = keep
				continue
			}
		}
		out = append(out, lv)
	}
	return out
}

func levelFromCluster(ps []Pivot, kind models.LevelKind, tf string) models.Level {
	sum := 0.0
	lv := models.Level{Kind: kind, Strength: len(ps), Timeframe: tf}
	for _, p := range ps {
		sum += p.Price
		if p.Time.After(lv.LastTouch) {
			lv.LastTouch = p.Time
		}
	}
	lv.Price = sum / float64(len(ps))
	return lv
}

func rank(ls []models.Level) {
	sort.Slice(ls, func(i, j int) bool {
		if ls[i].Strength != ls[j].Strength {
			return ls[i].Strength > ls[j].Strength
		}
		if !ls[i].LastTouch.Equal(ls[j].LastTouch) {
			return ls[i].LastTouch.After(ls[j].LastTouch)
		}
		return ls[i].Price < ls[j].Price
	})
}

func relDistance(a, b float64) float64 {
	d := b - a
	if d < 0 {
		d = -d
	}
	return d / a
}

func tfRank(tf string) int64 {
	return int64(domrepo.Timeframe(tf).Duration())
}
