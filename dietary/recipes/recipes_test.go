package recipes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/dietbot/dietary/catalog"
)

func ids(rs []catalog.Recipe) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}

func TestSearchChickenAcrossDiagnoses(t *testing.T) {
	all := catalog.Fixtures().Recipes()

	for name, d := range map[string]catalog.Diagnoses{
		"none":     {},
		"diabetes": {Diabetes: true},
		"gout":     {Gout: true},
		"celiac":   {Celiac: true},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, []string{"r_001"}, ids(Search(all, "курица", d, 10)))
		})
	}
}

func TestSearchMatchesIngredientCaseInsensitive(t *testing.T) {
	all := catalog.Fixtures().Recipes()

	got := Search(all, "  ОЛИВКОВОЕ ", catalog.Diagnoses{}, 10)
	assert.Equal(t, []string{"r_001", "r_002"}, ids(got))
}

func TestSearchEmptyQueryMatchesAll(t *testing.T) {
	all := catalog.Fixtures().Recipes()

	assert.Equal(t, []string{"r_001", "r_002", "r_003"}, ids(Search(all, "", catalog.Diagnoses{}, 10)))
	assert.Equal(t, []string{"r_001", "r_002"}, ids(Search(all, "", catalog.Diagnoses{}, 2)))
}

func TestSearchGoutExcludesHighPurines(t *testing.T) {
	all := catalog.Fixtures().Recipes()

	got := Search(all, "", catalog.Diagnoses{Gout: true}, 10)
	assert.Equal(t, []string{"r_001", "r_002"}, ids(got))
}

func TestSearchNonPositiveLimit(t *testing.T) {
	all := catalog.Fixtures().Recipes()

	assert.Empty(t, Search(all, "", catalog.Diagnoses{}, 0))
	assert.Empty(t, Search(all, "", catalog.Diagnoses{}, -3))
}

func TestSearchNoMatch(t *testing.T) {
	assert.Empty(t, Search(catalog.Fixtures().Recipes(), "пицца", catalog.Diagnoses{}, 10))
}

func TestAllowedThresholdsAreInclusive(t *testing.T) {
	r := catalog.Recipe{GlycemicIndex: 60, Purines: 100}
	assert.True(t, Allowed(r, catalog.Diagnoses{Diabetes: true, Gout: true}))

	r.GlycemicIndex = 61
	assert.False(t, Allowed(r, catalog.Diagnoses{Diabetes: true}))

	r.Purines = 100.5
	assert.False(t, Allowed(r, catalog.Diagnoses{Gout: true}))

	assert.False(t, Allowed(catalog.Recipe{}, catalog.Diagnoses{Celiac: true}))
}

func TestServiceSearchAndDetails(t *testing.T) {
	svc := NewService(catalog.Fixtures(), 1)

	got := svc.Search(context.Background(), "", catalog.Diagnoses{})
	assert.Equal(t, []string{"r_001"}, ids(got))

	r, ok := svc.Details("r_002")
	require.True(t, ok)
	assert.Len(t, r.Ingredients, 5)

	_, ok = svc.Details("missing")
	assert.False(t, ok)
}

func diagnosesFromBits(bits int) catalog.Diagnoses {
	return catalog.Diagnoses{Diabetes: bits&1 != 0, Gout: bits&2 != 0, Celiac: bits&4 != 0}
}

func TestSearchAddingDiagnosisNeverWidens(t *testing.T) {
	all := catalog.Fixtures().Recipes()

	for _, q := range []string{"", "курица", "оливковое", "рис"} {
		for narrow := range 8 {
			for wide := range 8 {
				if wide&narrow != narrow {
					continue
				}
				base := ids(Search(all, q, diagnosesFromBits(narrow), 10))
				more := ids(Search(all, q, diagnosesFromBits(wide), 10))
				assert.LessOrEqual(t, len(more), len(base), "query %q flags %03b -> %03b", q, narrow, wide)
				assert.Subset(t, base, more, "query %q flags %03b -> %03b", q, narrow, wide)
			}
		}
	}
}
