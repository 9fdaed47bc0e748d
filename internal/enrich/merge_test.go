package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/wikipedia-enrich/internal/match"
	"github.com/sells-group/wikipedia-enrich/internal/model"
)

func newTestMerger() *Merger {
	return NewMerger(match.DefaultRules())
}

func TestMerge_NeverOverwritesPopulatedValues(t *testing.T) {
	t.Parallel()

	existing := model.ExtractedFields{}
	for _, key := range model.AllFields {
		existing[key] = "real value"
	}
	existing[model.FieldYearFounded] = 1955
	existing[model.FieldEmployees] = 10

	extracted := model.ExtractedFields{
		model.FieldDescription: "different description",
		model.FieldWebsite:     "https://other.example",
		model.FieldYearFounded: 2001,
	}

	got := newTestMerger().Merge(extracted, nil, existing)
	assert.Empty(t, got)
}

func TestMerge_FillsGaps(t *testing.T) {
	t.Parallel()

	existing := model.ExtractedFields{
		model.FieldDescription: "already set",
		model.FieldWebsite:     "",
	}
	infobox := model.ExtractedFields{
		model.FieldWebsite:     "https://acme.com",
		model.FieldYearFounded: 1975,
	}

	got := newTestMerger().Merge(infobox, nil, existing)
	assert.Equal(t, "https://acme.com", got.String(model.FieldWebsite))
	assert.Equal(t, 1975, got.Int(model.FieldYearFounded))
	assert.False(t, got.Has(model.FieldDescription))
}

func TestMerge_InfoboxBeatsText(t *testing.T) {
	t.Parallel()

	infobox := model.ExtractedFields{model.FieldHeadquarters: "Springfield, Illinois"}
	text := model.ExtractedFields{
		model.FieldHeadquarters: "Cypress Creek",
		model.FieldMission:      "mission is widgets.",
	}

	got := newTestMerger().Merge(infobox, text, model.ExtractedFields{})
	assert.Equal(t, "Springfield, Illinois", got.String(model.FieldHeadquarters))
	assert.Equal(t, "mission is widgets.", got.String(model.FieldMission))
}

func TestMerge_PlaceholderValuesAreReplaceable(t *testing.T) {
	t.Parallel()

	existing := model.ExtractedFields{
		model.FieldWebsite: "https://www.example.com/acme",
		model.FieldLogo:    "https://logo.clearbit.com/acme.com",
	}
	extracted := model.ExtractedFields{
		model.FieldWebsite: "https://acme.com",
		model.FieldLogo:    "https://upload.wikimedia.org/acme.svg",
	}

	got := newTestMerger().Merge(extracted, nil, existing)
	assert.Equal(t, "https://acme.com", got.String(model.FieldWebsite))
	assert.Equal(t, "https://upload.wikimedia.org/acme.svg", got.String(model.FieldLogo))
}

func TestMerge_StockLogoDomainOnlyAppliesToLogo(t *testing.T) {
	t.Parallel()

	existing := model.ExtractedFields{
		model.FieldWebsite: "https://logo.clearbit.com/acme.com",
	}
	extracted := model.ExtractedFields{model.FieldWebsite: "https://acme.com"}

	got := newTestMerger().Merge(extracted, nil, existing)
	assert.False(t, got.Has(model.FieldWebsite))
}

func TestMerge_Idempotent(t *testing.T) {
	t.Parallel()

	m := newTestMerger()
	existing := model.ExtractedFields{}
	extracted := model.ExtractedFields{
		model.FieldWebsite:     "https://acme.com",
		model.FieldYearFounded: 1975,
	}

	first := m.Merge(extracted, nil, existing)
	assert.Len(t, first, 2)

	// Apply the first merge, then re-run: nothing left to fill.
	for k, v := range first {
		existing[k] = v
	}
	second := m.Merge(extracted, nil, existing)
	assert.Empty(t, second)
}
