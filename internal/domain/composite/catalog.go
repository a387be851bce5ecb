// Package composite implements the restorative-composite domain model: the
// immutable material catalog, wear-severity classification, and the filter
// pipeline that narrows the catalog to clinically admissible candidates.
package composite

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/turtacn/DentEMG-Intelligence/pkg/errors"
)

// WearResistance is the ordinal wear-resistance rating of a material.
type WearResistance string

const (
	WearResistanceLow      WearResistance = "low"
	WearResistanceMedium   WearResistance = "medium"
	WearResistanceHigh     WearResistance = "high"
	WearResistanceVeryHigh WearResistance = "very_high"
)

// Bulk-fill categories cure in a single increment; depth of cure matters.
const (
	CategoryHighViscosityBulkFill = "high_viscosity_bulk_fill"
	CategoryLowViscosityBulkFill  = "low_viscosity_bulk_fill"
)

// IsBulkFill reports whether the category cures in bulk increments.
func IsBulkFill(category string) bool {
	return category == CategoryHighViscosityBulkFill || category == CategoryLowViscosityBulkFill
}

// Composite is one catalog material record.
type Composite struct {
	Name                 string         `json:"name"`
	Category             string         `json:"category"`
	Viscosity            string         `json:"viscosity"`
	Manufacturer         string         `json:"manufacturer"`
	Region               string         `json:"region"`
	YearReleased         int            `json:"year_released"`
	PriceRub             float64        `json:"price_rub"`
	MicrohardnessKHN     float64        `json:"microhardness_KHN"`
	ShrinkagePercent     float64        `json:"polymerization_shrinkage_percent"`
	FillerContentPercent float64        `json:"filler_content_percent"`
	DepthOfCureMM        float64        `json:"depth_of_cure_mm"`
	WearResistance       WearResistance `json:"wear_resistance"`
	SuitableForOcclusal  bool           `json:"suitable_for_occlusal"`
	RequiresCapping      bool           `json:"requires_capping"`
	Notes                string         `json:"notes"`
}

// OcclusalCriteria is the required profile for occlusal restorations.
type OcclusalCriteria struct {
	Required struct {
		Viscosity           string  `json:"viscosity"`
		ShrinkageMax        float64 `json:"polymerization_shrinkage_percent_max"`
		MicrohardnessMin    float64 `json:"microhardness_KHN_min"`
		SuitableForOcclusal bool    `json:"suitable_for_occlusal"`
		RequiresCapping     bool    `json:"requires_capping"`
	} `json:"required"`
	ExcludedCategories []string `json:"excluded_categories"`
}

// AnomalyCriteria is the additional profile for patients with occlusion
// anomalies.
type AnomalyCriteria struct {
	AdditionalRequirements struct {
		MicrohardnessMin float64 `json:"microhardness_KHN_min"`
		ShrinkageMax     float64 `json:"polymerization_shrinkage_percent_max"`
	} `json:"additional_requirements"`
}

// SelectionCriteria groups the two catalog criteria blocks.
type SelectionCriteria struct {
	ForOcclusalRestorations           OcclusalCriteria `json:"for_occlusal_restorations"`
	ForPatientsWithOcclusionAnomalies AnomalyCriteria  `json:"for_patients_with_occlusion_anomalies"`
}

// GradeCriteria is the material profile a classification grade demands.
// Pointer fields distinguish "absent" from zero so the filter can apply the
// documented grade defaults.
type GradeCriteria struct {
	Name                      string   `json:"name"`
	Characteristics           string   `json:"characteristics"`
	RecommendedHardnessMin    *float64 `json:"recommended_microhardness_min"`
	RecommendedWearResistance string   `json:"recommended_wear_resistance"`
	RecommendedFillerMin      *float64 `json:"recommended_filler_min"`
}

// EMGClassification holds the material profiles for the two EMG wear bands.
type EMGClassification struct {
	NoneMild struct {
		RecommendedHardnessMin float64 `json:"recommended_microhardness_min"`
	} `json:"wear_severity_none_mild"`
	ModerateSevere struct {
		RecommendedHardnessMin    float64 `json:"recommended_microhardness_min"`
		RecommendedWearResistance string  `json:"recommended_wear_resistance"`
	} `json:"wear_severity_moderate_severe"`
}

// GradedClassification holds a keyed grade table (Bushan degrees I-IV,
// TWES 2.0 grades 0-4).
type GradedClassification struct {
	Grades map[string]GradeCriteria
}

// Catalog is the immutable composite database.  It is loaded once at startup
// and shared read-only across the application; a load failure is fatal.
type Catalog struct {
	composites []Composite
	criteria   SelectionCriteria
	emg        EMGClassification
	bushan     GradedClassification
	twes       GradedClassification

	maxHardness  float64
	maxShrinkage float64
}

// rawCatalog mirrors the on-disk JSON layout.
type rawCatalog struct {
	Composites        []Composite        `json:"composites"`
	SelectionCriteria *SelectionCriteria `json:"selection_criteria"`
	EMG               *EMGClassification `json:"emg_based_classification"`
	Bushan            *struct {
		Degrees map[string]GradeCriteria `json:"degrees"`
	} `json:"bushan_classification"`
	TWES *struct {
		Grades map[string]GradeCriteria `json:"grades"`
	} `json:"twes2_classification"`
}

// requiredCatalogKeys are the top-level keys a catalog file must carry.
var requiredCatalogKeys = []string{
	"composites",
	"selection_criteria",
	"emg_based_classification",
	"bushan_classification",
	"twes2_classification",
}

// LoadCatalog reads and validates the catalog file at path.  Any missing
// required key produces a single Configuration error naming every absent key
// so the operator can repair the file in one pass.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfiguration, "failed to read composite catalog").
			WithDetail(path)
	}
	return ParseCatalog(data)
}

// ParseCatalog builds a Catalog from raw JSON bytes.
func ParseCatalog(data []byte) (*Catalog, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCatalogParseFailed, "composite catalog is not a JSON object")
	}

	var missing []string
	for _, k := range requiredCatalogKeys {
		if _, ok := keys[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Configuration("composite catalog is missing required keys").
			WithDetail(strings.Join(missing, ", "))
	}

	var raw rawCatalog
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCatalogParseFailed, "failed to decode composite catalog")
	}
	if len(raw.Composites) == 0 {
		return nil, errors.Configuration("composite catalog contains no composites")
	}

	// A present key may still hold a JSON null, which decodes into a nil
	// section pointer; treat that the same as a missing key.
	var null []string
	if raw.SelectionCriteria == nil {
		null = append(null, "selection_criteria")
	}
	if raw.EMG == nil {
		null = append(null, "emg_based_classification")
	}
	if raw.Bushan == nil {
		null = append(null, "bushan_classification")
	}
	if raw.TWES == nil {
		null = append(null, "twes2_classification")
	}
	if len(null) > 0 {
		return nil, errors.Configuration("composite catalog has null required sections").
			WithDetail(strings.Join(null, ", "))
	}

	c := &Catalog{
		composites: raw.Composites,
		criteria:   *raw.SelectionCriteria,
		emg:        *raw.EMG,
		bushan:     GradedClassification{Grades: raw.Bushan.Degrees},
		twes:       GradedClassification{Grades: raw.TWES.Grades},
	}
	for _, m := range c.composites {
		if m.MicrohardnessKHN > c.maxHardness {
			c.maxHardness = m.MicrohardnessKHN
		}
		if m.ShrinkagePercent > c.maxShrinkage {
			c.maxShrinkage = m.ShrinkagePercent
		}
	}
	return c, nil
}

// Composites returns a copy of the material records; the catalog itself stays
// immutable.
func (c *Catalog) Composites() []Composite {
	out := make([]Composite, len(c.composites))
	copy(out, c.composites)
	return out
}

// Size returns the number of catalog materials.
func (c *Catalog) Size() int { return len(c.composites) }

// Criteria returns the selection criteria blocks.
func (c *Catalog) Criteria() SelectionCriteria { return c.criteria }

// EMGClassification returns the EMG wear-band profiles.
func (c *Catalog) EMGClassification() EMGClassification { return c.emg }

// BushanGrade returns the criteria for a Bushan degree ("I".."IV").
func (c *Catalog) BushanGrade(degree string) (GradeCriteria, bool) {
	g, ok := c.bushan.Grades[degree]
	return g, ok
}

// TWESGrade returns the criteria for a TWES 2.0 grade ("0".."4").
func (c *Catalog) TWESGrade(grade string) (GradeCriteria, bool) {
	g, ok := c.twes.Grades[grade]
	return g, ok
}

// MaxMicrohardness returns the highest microhardness in the catalog; the
// scoring engine normalizes hardness against it.
func (c *Catalog) MaxMicrohardness() float64 { return c.maxHardness }

// MaxShrinkage returns the highest shrinkage in the catalog.
func (c *Catalog) MaxShrinkage() float64 { return c.maxShrinkage }
