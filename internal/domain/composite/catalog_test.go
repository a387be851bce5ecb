package composite

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/DentEMG-Intelligence/pkg/errors"
)

// testCatalogJSON is a compact but structurally complete catalog covering
// every filter path.
const testCatalogJSON = `{
  "composites": [
    {
      "name": "NanoCeram Uni", "category": "nanohybrid", "viscosity": "packable",
      "manufacturer": "DentCo", "region": "EU", "year_released": 2019, "price_rub": 2500,
      "microhardness_KHN": 80, "polymerization_shrinkage_percent": 2.0,
      "filler_content_percent": 40, "depth_of_cure_mm": 2.0,
      "wear_resistance": "high", "suitable_for_occlusal": true, "requires_capping": false
    },
    {
      "name": "MicroFill Soft", "category": "microhybrid", "viscosity": "packable",
      "manufacturer": "DentCo", "region": "EU", "year_released": 2015, "price_rub": 1400,
      "microhardness_KHN": 60, "polymerization_shrinkage_percent": 2.8,
      "filler_content_percent": 50, "depth_of_cure_mm": 2.0,
      "wear_resistance": "medium", "suitable_for_occlusal": true, "requires_capping": false
    },
    {
      "name": "BulkArmor Max", "category": "high_viscosity_bulk_fill", "viscosity": "packable",
      "manufacturer": "StrongDent", "region": "US", "year_released": 2022, "price_rub": 4200,
      "microhardness_KHN": 90, "polymerization_shrinkage_percent": 1.5,
      "filler_content_percent": 70, "depth_of_cure_mm": 5.0,
      "wear_resistance": "very_high", "suitable_for_occlusal": true, "requires_capping": false
    },
    {
      "name": "LiteFlow Thin", "category": "microhybrid", "viscosity": "packable",
      "manufacturer": "DentCo", "region": "EU", "year_released": 2018, "price_rub": 900,
      "microhardness_KHN": 55, "polymerization_shrinkage_percent": 2.2,
      "filler_content_percent": 15, "depth_of_cure_mm": 2.0,
      "wear_resistance": "medium", "suitable_for_occlusal": true, "requires_capping": false
    },
    {
      "name": "ShrinkMuch", "category": "microhybrid", "viscosity": "packable",
      "manufacturer": "CheapDent", "region": "CN", "year_released": 2012, "price_rub": 600,
      "microhardness_KHN": 65, "polymerization_shrinkage_percent": 3.4,
      "filler_content_percent": 45, "depth_of_cure_mm": 2.0,
      "wear_resistance": "medium", "suitable_for_occlusal": true, "requires_capping": false
    },
    {
      "name": "FlowBase", "category": "flowable", "viscosity": "packable",
      "manufacturer": "DentCo", "region": "EU", "year_released": 2020, "price_rub": 1100,
      "microhardness_KHN": 52, "polymerization_shrinkage_percent": 2.9,
      "filler_content_percent": 35, "depth_of_cure_mm": 2.0,
      "wear_resistance": "low", "suitable_for_occlusal": true, "requires_capping": false
    },
    {
      "name": "RunnyResin", "category": "microhybrid", "viscosity": "flowable",
      "manufacturer": "DentCo", "region": "EU", "year_released": 2021, "price_rub": 1300,
      "microhardness_KHN": 75, "polymerization_shrinkage_percent": 2.1,
      "filler_content_percent": 42, "depth_of_cure_mm": 2.0,
      "wear_resistance": "high", "suitable_for_occlusal": true, "requires_capping": false
    }
  ],
  "selection_criteria": {
    "for_occlusal_restorations": {
      "required": {
        "viscosity": "packable",
        "polymerization_shrinkage_percent_max": 3.5,
        "microhardness_KHN_min": 50,
        "suitable_for_occlusal": true,
        "requires_capping": false
      },
      "excluded_categories": ["flowable"]
    },
    "for_patients_with_occlusion_anomalies": {
      "additional_requirements": {
        "microhardness_KHN_min": 70,
        "polymerization_shrinkage_percent_max": 2.5
      }
    }
  },
  "emg_based_classification": {
    "wear_severity_none_mild": {"recommended_microhardness_min": 50},
    "wear_severity_moderate_severe": {
      "recommended_microhardness_min": 70,
      "recommended_wear_resistance": "very_high"
    }
  },
  "bushan_classification": {
    "degrees": {
      "II": {
        "name": "II degree",
        "characteristics": "dentin exposure up to one third of the crown",
        "recommended_microhardness_min": 60,
        "recommended_wear_resistance": "high",
        "recommended_filler_min": 60
      }
    }
  },
  "twes2_classification": {
    "grades": {
      "3": {
        "name": "grade 3",
        "characteristics": "severe generalized wear",
        "recommended_microhardness_min": 70,
        "recommended_wear_resistance": "very_high",
        "recommended_filler_min": 65
      }
    }
  }
}`

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := ParseCatalog([]byte(testCatalogJSON))
	require.NoError(t, err)
	return c
}

func TestParseCatalog(t *testing.T) {
	c := testCatalog(t)
	assert.Equal(t, 7, c.Size())
	assert.Equal(t, 90.0, c.MaxMicrohardness())
	assert.Equal(t, 3.4, c.MaxShrinkage())

	g, ok := c.BushanGrade("II")
	require.True(t, ok)
	assert.Equal(t, 60.0, *g.RecommendedHardnessMin)

	_, ok = c.TWESGrade("9")
	assert.False(t, ok)
}

func TestParseCatalogNamesAllMissingKeys(t *testing.T) {
	_, err := ParseCatalog([]byte(`{"composites": []}`))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeConfiguration))
	// Every absent key is named in one error.
	assert.Contains(t, err.Error(), "selection_criteria")
	assert.Contains(t, err.Error(), "emg_based_classification")
	assert.Contains(t, err.Error(), "bushan_classification")
	assert.Contains(t, err.Error(), "twes2_classification")
}

func TestParseCatalogNamesNullSections(t *testing.T) {
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(testCatalogJSON), &doc))
	doc["selection_criteria"] = json.RawMessage("null")
	doc["twes2_classification"] = json.RawMessage("null")
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	_, err = ParseCatalog(data)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeConfiguration))
	assert.Contains(t, err.Error(), "selection_criteria")
	assert.Contains(t, err.Error(), "twes2_classification")
	assert.NotContains(t, err.Error(), "bushan_classification")
}

func TestParseCatalogRejectsNonObject(t *testing.T) {
	_, err := ParseCatalog([]byte(`[1, 2, 3]`))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeCatalogParseFailed))
}

func TestCompositesReturnsCopy(t *testing.T) {
	c := testCatalog(t)
	list := c.Composites()
	list[0].Name = "mutated"
	assert.NotEqual(t, "mutated", c.Composites()[0].Name)
}
