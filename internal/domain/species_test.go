package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floweringTaxon(id int, name, commonName string) *Taxon {
	return &Taxon{
		ID:                  id,
		Name:                name,
		PreferredCommonName: commonName,
		IconicTaxonName:     "Plantae",
		Rank:                "species",
		TaxonSchemes:        []TaxonScheme{{Name: "Angiosperm Phylogeny Group"}},
	}
}

func obs(date string, taxon *Taxon, photoURLs ...string) Observation {
	photos := make([]ObservationPhoto, 0, len(photoURLs))
	for _, u := range photoURLs {
		photos = append(photos, ObservationPhoto{URL: u})
	}
	return Observation{ObservedOn: date, Taxon: taxon, Photos: photos}
}

func TestAggregateObservations_FiltersNonQualifying(t *testing.T) {
	years := []int{2024}

	noCommonName := floweringTaxon(1, "Rosa acicularis", "  ")
	wrongKingdom := floweringTaxon(2, "Apis mellifera", "Honey Bee")
	wrongKingdom.IconicTaxonName = "Insecta"
	genusRank := floweringTaxon(3, "Rosa", "Roses")
	genusRank.Rank = "genus"
	noScheme := floweringTaxon(4, "Pinus contorta", "Lodgepole Pine")
	noScheme.TaxonSchemes = []TaxonScheme{{Name: "Gymnosperm checklist"}}
	zeroID := floweringTaxon(0, "Unknown", "Unknown")

	input := []Observation{
		obs("2024-05-01", nil),
		obs("2024-05-01", noCommonName),
		obs("2024-05-01", wrongKingdom),
		obs("2024-05-01", genusRank),
		obs("2024-05-01", noScheme),
		obs("2024-05-01", zeroID),
		obs("2023-05-01", floweringTaxon(7, "Rosa woodsii", "Woods' Rose")),
		obs("not-a-date", floweringTaxon(8, "Rosa nutkana", "Nootka Rose")),
		obs("2024-05-01", floweringTaxon(9, "Rosa acicularis", "Prickly Rose")),
	}

	ranked := AggregateObservations(input, years)

	require.Len(t, ranked, 1)
	assert.Equal(t, 9, ranked[0].ID)
	assert.Equal(t, "Prickly Rose", ranked[0].CommonName)
}

func TestAggregateObservations_CountsDistinctYears(t *testing.T) {
	years := []int{2022, 2023, 2024}
	taxon := floweringTaxon(11, "Lupinus arcticus", "Arctic Lupine")

	input := []Observation{
		obs("2023-06-01", taxon),
		obs("2023-06-15", taxon),
		obs("2023-07-01", taxon),
		obs("2024-06-10", taxon),
	}

	ranked := AggregateObservations(input, years)

	require.Len(t, ranked, 1)
	assert.Equal(t, 2, ranked[0].Count)
	assert.Equal(t, []int{2023, 2024}, ranked[0].Years)
}

func TestAggregateObservations_PhotoHandling(t *testing.T) {
	years := []int{2024}
	taxon := floweringTaxon(21, "Epilobium angustifolium", "Fireweed")

	input := []Observation{
		obs("2024-07-01", taxon, "https://img.example/1/square.jpg", "https://img.example/1/extra.jpg"),
		obs("2024-07-02", taxon, "https://img.example/1/square.jpg"),
		obs("2024-07-03", taxon, "https://img.example/2/square.jpg"),
		obs("2024-07-04", taxon),
	}

	ranked := AggregateObservations(input, years)

	require.Len(t, ranked, 1)
	// Only the first photo per observation is taken, the size token is
	// rewritten, and duplicates are dropped.
	assert.Equal(t, []string{
		"https://img.example/1/medium.jpg",
		"https://img.example/2/medium.jpg",
	}, ranked[0].Photos)
	assert.Equal(t, 2, ranked[0].Priority)
}

func TestAggregateObservations_Ranking(t *testing.T) {
	years := []int{2022, 2023, 2024}
	frequent := floweringTaxon(31, "Achillea millefolium", "Common Yarrow")
	photogenic := floweringTaxon(32, "Castilleja miniata", "Giant Red Paintbrush")
	plain := floweringTaxon(33, "Geum triflorum", "Prairie Smoke")

	input := []Observation{
		obs("2022-05-01", plain),
		obs("2022-05-02", photogenic, "https://img.example/a/square.jpg"),
		obs("2022-05-03", frequent),
		obs("2023-05-01", frequent),
	}

	ranked := AggregateObservations(input, years)

	require.Len(t, ranked, 3)
	// Two distinct years beats one; among single-year species the photo
	// count breaks the tie; remaining ties keep encounter order.
	assert.Equal(t, 31, ranked[0].ID)
	assert.Equal(t, 32, ranked[1].ID)
	assert.Equal(t, 33, ranked[2].ID)
}

func TestAggregateObservations_Deterministic(t *testing.T) {
	years := []int{2023, 2024}
	input := []Observation{
		obs("2023-05-01", floweringTaxon(41, "Rosa woodsii", "Woods' Rose"), "https://img.example/r/square.jpg"),
		obs("2024-05-01", floweringTaxon(42, "Lupinus arcticus", "Arctic Lupine")),
		obs("2024-06-01", floweringTaxon(41, "Rosa woodsii", "Woods' Rose")),
	}

	first := AggregateObservations(input, years)
	second := AggregateObservations(input, years)

	assert.Equal(t, first, second)
}

func TestAggregateObservations_Empty(t *testing.T) {
	ranked := AggregateObservations(nil, []int{2024})
	assert.Empty(t, ranked)
}
