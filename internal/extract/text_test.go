package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/wikipedia-enrich/internal/model"
	"github.com/sells-group/wikipedia-enrich/internal/normalize"
)

func TestTextExtract_FillsMissingFields(t *testing.T) {
	t.Parallel()

	text := "Globex Corporation is a power company headquartered in Cypress Creek, Oregon. " +
		"It was founded in 1989 and is led by Hank Scorpio. " +
		"Its mission is to provide clean affordable energy. " +
		"Website: https://www.globex.com."

	te := NewTextExtractor(nil)
	got := te.Extract(text, normalize.Normalize("Globex Corporation"), model.ExtractedFields{}, model.ExtractedFields{})

	assert.Equal(t, "https://www.globex.com", got.String(model.FieldWebsite))
	assert.Equal(t, 1989, got.Int(model.FieldYearFounded))
	assert.Equal(t, "Cypress Creek, Oregon", got.String(model.FieldHeadquarters))
	assert.Equal(t, "Hank Scorpio", got.String(model.FieldCEOName))
	assert.Equal(t, "CEO", got.String(model.FieldCEOTitle))
	assert.Equal(t, "mission is to provide clean affordable energy.", got.String(model.FieldMission))
}

func TestTextExtract_SkipsResolvedAndExistingFields(t *testing.T) {
	t.Parallel()

	text := "Founded in 1989, headquartered in Cypress Creek."
	have := model.ExtractedFields{model.FieldYearFounded: 1975}
	existing := model.ExtractedFields{model.FieldHeadquarters: "Springfield"}

	got := NewTextExtractor(nil).Extract(text, normalize.Normalize("Globex"), have, existing)

	assert.False(t, got.Has(model.FieldYearFounded))
	assert.False(t, got.Has(model.FieldHeadquarters))
}

func TestTextExtract_WebsiteOverrideWins(t *testing.T) {
	t.Parallel()

	overrides := map[string]string{"aws": "https://aws.amazon.com"}
	text := "AWS is a subsidiary; see https://www.some-blogspam.example for details."

	got := NewTextExtractor(overrides).Extract(text, normalize.Normalize("AWS"), model.ExtractedFields{}, model.ExtractedFields{})
	assert.Equal(t, "https://aws.amazon.com", got.String(model.FieldWebsite))
}

func TestTextExtract_DirectorTitleInference(t *testing.T) {
	t.Parallel()

	text := "The agency is headed by Ada Lovelace, who serves as director of the program."
	got := NewTextExtractor(nil).Extract(text, normalize.Normalize("Example Agency"), model.ExtractedFields{}, model.ExtractedFields{})

	assert.Equal(t, "Ada Lovelace", got.String(model.FieldCEOName))
	assert.Equal(t, "Director", got.String(model.FieldCEOTitle))
}

func TestTextExtract_EmptyText(t *testing.T) {
	t.Parallel()

	got := NewTextExtractor(nil).Extract("   ", normalize.Normalize("Acme"), model.ExtractedFields{}, model.ExtractedFields{})
	assert.Empty(t, got)
}

func TestMission_RequiresGateKeyword(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", mission("Acme makes widgets. It sells them worldwide."))
	got := mission("Acme makes widgets. The goal is to build the best widgets on earth.")
	assert.Equal(t, "goal is to build the best widgets on earth.", got)
}

func TestMission_StripsLeadingDeterminer(t *testing.T) {
	t.Parallel()

	got := mission("Its purpose is exploration of deep space.")
	assert.Equal(t, "purpose is exploration of deep space.", got)
}

func TestFirstMatch_OrderedPatternsFirstWins(t *testing.T) {
	t.Parallel()

	text := "Homepage: www.acme.example and also https://other.example"
	require.Equal(t, "www.acme.example", firstMatch(textPatterns[model.FieldWebsite], text))
}
