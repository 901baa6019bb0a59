package media

// AudioAsset is a locally materialized raw audio file. It is owned by the
// pipeline run that created it and removed by the janitor before the run
// returns.
type AudioAsset struct {
	LocalPath       string
	DurationSeconds float64
	SizeBytes       int64
	Format          string
	Title           string
}

// Segment is one fixed-duration slice of an AudioAsset. Indices are 0-based
// and contiguous; the start offset is deterministic by construction.
type Segment struct {
	Index              int
	LocalPath          string
	StartOffsetSeconds float64
	DurationSeconds    float64
}
