// Package domain models bloom-evaluation data and the pure computations over it.
//
// # Data Sources
//
// Climate series come from the NASA POWER daily point API (T2M, T2M_MAX,
// T2M_MIN, PRECTOTCORR channels, agroclimatology community). Each channel is a
// map of date key → reading. POWER uses -999 as the sentinel for a missing
// reading; sentinel entries are excluded from every aggregate. Readings are
// degrees Celsius for temperature and millimetres for precipitation.
//
// Vegetation index samples come from the AppEEARS batch-processing API
// (MOD13Q1 v6.1 product, 250m 16-day NDVI and EVI layers). AppEEARS tasks are
// asynchronous: a submitted point task is polled until it reaches a terminal
// status, then its output bundle is downloaded. The tabular output yields one
// [NDVISample] per 16-day composite, date-ascending by provider contract.
// NDVI and EVI are reflectance indices in roughly [-1, 1]; a value that could
// not be parsed is carried as NaN, never coerced to zero.
//
// Species observations come from the iNaturalist API. An observation only
// contributes to the species leaderboard when its taxon is a species-level
// flowering plant: iconic taxon "Plantae", rank "species", and at least one
// taxon scheme whose name mentions the angiosperm clade. See
// [AggregateObservations].
//
// # Scoring
//
// The bloom score is a hand-tuned integer heuristic combining temperature and
// precipitation anomalies against the prior year, the mean NDVI level, and the
// direction of the last three NDVI composites. The constants in score.go are
// the tuned behavior of the evaluator, not free parameters; see [ScoreBloom].
package domain
