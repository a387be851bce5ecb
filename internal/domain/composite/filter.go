package composite

// FilterOptions selects which filter stages apply and their parameters.
type FilterOptions struct {
	// ForOcclusal applies the required occlusal-restoration criteria and the
	// excluded-category list.
	ForOcclusal bool

	// HasOcclusionAnomaly applies the reinforced anomaly profile: high or
	// very high wear resistance plus the additional hardness and shrinkage
	// bounds.
	HasOcclusionAnomaly bool

	// Wear selects the classification-specific stage.
	Wear WearSeverity

	// UseArticleRules applies the literature-derived bounds: shrinkage at
	// most 3.0%, filler at least 20%, and the 20-55% optimal-filler tag.
	UseArticleRules bool

	Regions       []string
	Manufacturers []string
	YearMin       int
	PriceMax      float64
}

// Candidate is a catalog material that survived filtering, annotated with the
// optimal-filler tag the tiering stage depends on.
type Candidate struct {
	Composite

	// FillerOptimal marks filler content in the 20-55% band.
	FillerOptimal bool `json:"filler_optimal"`
}

// Grade-stage defaults applied when a Bushan/TWES grade omits a bound.
const (
	defaultGradeHardnessMin = 50.0
	defaultGradeFillerMin   = 60.0
)

// Filter narrows the catalog to the candidates admissible under opts.
// An empty result is a valid outcome, not an error: it means no material in
// the catalog satisfies the clinical profile.
func (c *Catalog) Filter(opts FilterOptions) []Candidate {
	out := make([]Candidate, 0, len(c.composites))

	for _, m := range c.composites {
		if !c.admits(m, opts) {
			continue
		}
		out = append(out, Candidate{
			Composite:     m,
			FillerOptimal: m.FillerContentPercent >= 20.0 && m.FillerContentPercent < 55.0,
		})
	}
	return out
}

func (c *Catalog) admits(m Composite, opts FilterOptions) bool {
	if opts.ForOcclusal {
		req := c.criteria.ForOcclusalRestorations.Required
		if m.Viscosity != req.Viscosity ||
			m.ShrinkagePercent > req.ShrinkageMax ||
			m.MicrohardnessKHN < req.MicrohardnessMin ||
			m.SuitableForOcclusal != req.SuitableForOcclusal ||
			m.RequiresCapping != req.RequiresCapping {
			return false
		}
		for _, cat := range c.criteria.ForOcclusalRestorations.ExcludedCategories {
			if m.Category == cat {
				return false
			}
		}
	}

	if opts.UseArticleRules {
		// Shrinkage bound per Rizzante 2019; filler floor per PMID 24909664.
		if m.ShrinkagePercent > 3.0 || m.FillerContentPercent < 20.0 {
			return false
		}
	}

	if opts.HasOcclusionAnomaly {
		add := c.criteria.ForPatientsWithOcclusionAnomalies.AdditionalRequirements
		if m.WearResistance != WearResistanceHigh && m.WearResistance != WearResistanceVeryHigh {
			return false
		}
		if m.MicrohardnessKHN < add.MicrohardnessMin || m.ShrinkagePercent > add.ShrinkageMax {
			return false
		}
	}

	if !c.admitsWear(m, opts.Wear) {
		return false
	}

	if len(opts.Regions) > 0 && !containsString(opts.Regions, m.Region) {
		return false
	}
	if len(opts.Manufacturers) > 0 && !containsString(opts.Manufacturers, m.Manufacturer) {
		return false
	}
	if opts.YearMin > 0 && m.YearReleased < opts.YearMin {
		return false
	}
	if opts.PriceMax > 0 && m.PriceRub > opts.PriceMax {
		return false
	}
	return true
}

func (c *Catalog) admitsWear(m Composite, w WearSeverity) bool {
	switch w.Kind {
	case WearKindTWES:
		grade, ok := c.TWESGrade(w.TWES)
		if !ok {
			// Grade absent from the catalog table: no extra constraint.
			return true
		}
		return admitsGrade(m, grade)

	case WearKindBushan:
		grade, ok := c.BushanGrade(w.Bushan)
		if !ok {
			return true
		}
		return admitsGrade(m, grade)

	case WearKindEMG:
		switch w.EMG {
		case EMGGradeNone, EMGGradeMild:
			return m.MicrohardnessKHN >= c.emg.NoneMild.RecommendedHardnessMin
		case EMGGradeModerate, EMGGradeSevere:
			ms := c.emg.ModerateSevere
			if m.MicrohardnessKHN < ms.RecommendedHardnessMin {
				return false
			}
			// The recommended rating or plain "high" both qualify.
			return string(m.WearResistance) == ms.RecommendedWearResistance ||
				m.WearResistance == WearResistanceHigh
		}
		return true

	default:
		return true
	}
}

func admitsGrade(m Composite, g GradeCriteria) bool {
	minHardness := defaultGradeHardnessMin
	if g.RecommendedHardnessMin != nil {
		minHardness = *g.RecommendedHardnessMin
	}
	if m.MicrohardnessKHN < minHardness {
		return false
	}

	recommended := g.RecommendedWearResistance
	if recommended == "" {
		recommended = string(WearResistanceHigh)
	}
	if recommended == string(WearResistanceVeryHigh) {
		if m.WearResistance != WearResistanceVeryHigh && m.WearResistance != WearResistanceHigh {
			return false
		}
	} else {
		switch m.WearResistance {
		case WearResistanceHigh, WearResistanceVeryHigh, WearResistanceMedium:
		default:
			return false
		}
	}

	minFiller := defaultGradeFillerMin
	if g.RecommendedFillerMin != nil {
		minFiller = *g.RecommendedFillerMin
	}
	return m.FillerContentPercent >= minFiller
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
