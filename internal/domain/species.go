package domain

import (
	"sort"
	"strings"
	"time"
)

// Filter criteria for leaderboard-relevant observations.
const (
	plantIconicTaxon    = "Plantae"
	speciesRank         = "species"
	floweringCladeToken = "angiosperm"
)

// TaxonScheme is one naming scheme a taxon belongs to.
type TaxonScheme struct {
	Name string `json:"name"`
}

// Taxon is the taxonomic classification attached to an observation.
type Taxon struct {
	ID                  int           `json:"id"`
	Name                string        `json:"name"`
	PreferredCommonName string        `json:"preferred_common_name"`
	IconicTaxonName     string        `json:"iconic_taxon_name"`
	Rank                string        `json:"rank"`
	TaxonSchemes        []TaxonScheme `json:"taxon_schemes"`
}

// ObservationPhoto is one photo reference on an observation. The provider
// serves a thumbnail ("square") variant by default.
type ObservationPhoto struct {
	URL string `json:"url"`
}

// Observation is a raw, read-only record from the species-observation
// provider.
type Observation struct {
	ObservedOn string             `json:"observed_on"`
	Taxon      *Taxon             `json:"taxon"`
	Photos     []ObservationPhoto `json:"photos"`
}

// SpeciesRecord aggregates every qualifying observation of one taxon.
// Count is the number of distinct years the species was observed in the
// analysis window; Priority is the number of distinct photos collected.
type SpeciesRecord struct {
	ID         int      `json:"id"`
	Name       string   `json:"name"`
	CommonName string   `json:"common_name"`
	Years      []int    `json:"years"`
	Count      int      `json:"count"`
	Photos     []string `json:"photos"`
	Priority   int      `json:"priority"`
	Details    string   `json:"details,omitempty"`
}

// AggregateObservations filters, deduplicates, and ranks raw observations
// into a species leaderboard, sorted by distinct-year count then photo
// priority, both descending. Ties keep first-encounter order (stable sort).
func AggregateObservations(observations []Observation, years []int) []SpeciesRecord {
	yearSet := make(map[int]bool, len(years))
	for _, y := range years {
		yearSet[y] = true
	}

	records := make(map[int]*SpeciesRecord)
	order := make([]int, 0)

	for _, obs := range observations {
		year, ok := observedYear(obs.ObservedOn)
		if !ok || !yearSet[year] {
			continue
		}
		if !qualifies(obs.Taxon) {
			continue
		}

		rec, seen := records[obs.Taxon.ID]
		if !seen {
			rec = &SpeciesRecord{
				ID:         obs.Taxon.ID,
				Name:       obs.Taxon.Name,
				CommonName: strings.TrimSpace(obs.Taxon.PreferredCommonName),
				Years:      []int{},
				Photos:     []string{},
			}
			records[obs.Taxon.ID] = rec
			order = append(order, obs.Taxon.ID)
		}

		// Count a species once per distinct year, not once per observation.
		if !containsInt(rec.Years, year) {
			rec.Years = append(rec.Years, year)
			rec.Count++
		}

		if url := firstPhotoURL(obs); url != "" && !containsString(rec.Photos, url) {
			rec.Photos = append(rec.Photos, url)
		}
	}

	ranked := make([]SpeciesRecord, 0, len(order))
	for _, id := range order {
		rec := records[id]
		rec.Priority = len(rec.Photos)
		ranked = append(ranked, *rec)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Priority > ranked[j].Priority
	})

	return ranked
}

// qualifies applies the flowering-plant filter: species-level Plantae with at
// least one angiosperm naming scheme and a usable common name.
func qualifies(taxon *Taxon) bool {
	if taxon == nil || taxon.ID == 0 {
		return false
	}
	if strings.TrimSpace(taxon.PreferredCommonName) == "" {
		return false
	}
	if taxon.IconicTaxonName != plantIconicTaxon {
		return false
	}
	if taxon.Rank != speciesRank {
		return false
	}
	for _, scheme := range taxon.TaxonSchemes {
		if strings.Contains(strings.ToLower(scheme.Name), floweringCladeToken) {
			return true
		}
	}
	return false
}

// observedYear parses the year out of an observed_on date. Records with an
// unparseable date are skipped, matching how an out-of-window year is.
func observedYear(observedOn string) (int, bool) {
	t, err := time.Parse("2006-01-02", observedOn)
	if err != nil {
		return 0, false
	}
	return t.Year(), true
}

// firstPhotoURL takes the first photo of an observation and rewrites its
// size-qualifier token from the thumbnail variant to the medium one.
func firstPhotoURL(obs Observation) string {
	if len(obs.Photos) == 0 || obs.Photos[0].URL == "" {
		return ""
	}
	return strings.Replace(obs.Photos[0].URL, "square", "medium", 1)
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

func containsString(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
