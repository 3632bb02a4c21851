package service

const (
	// Pagination limits
	TestListLimit  = 100
	BatchPageLimit = 500

	// Unit conversions
	KmPerMile        = 1.609344
	SecondsPerMinute = 60
)

// Test sources
const (
	SourceCSV    = "csv"
	SourceFIT    = "fit"
	SourceAPI    = "api"
	SourceManual = "manual"
)
