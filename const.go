package engine

// EngineVersion is attached to run correlation logs so operators can tell
// which build produced a given backtest or replay.
const EngineVersion = "v1.0.0"

// DefaultSnapshotLevels is the default depth passed to GetSnapshot when a
// caller does not specify one (§4.1: get_snapshot(levels=10)).
const DefaultSnapshotLevels = 10

