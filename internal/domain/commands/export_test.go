package commands

// ContainedPath exports containedPath for testing.
var ContainedPath = containedPath //nolint:gochecknoglobals // test export

// LatestTimestamp exports latestTimestamp for testing.
var LatestTimestamp = latestTimestamp //nolint:gochecknoglobals // test export
