package model

const (
	TimezoneOffset = 0
	TimezoneName   = "UTC"
	SourceTag      = "dbip_import"
)

type GeoRow struct {
	AddressFamily  int    `db:"address_family"` // 4 or 6
	Network        string `db:"network"`
	City           string `db:"city"`
	StateProv      string `db:"stateprov"`
	Country        string `db:"country"`
	Latitude       string `db:"latitude"`
	Longitude      string `db:"longitude"`
	TimezoneOffset int    `db:"timezone_offset"`
	TimezoneName   string `db:"timezone_name"`
	SourceTag      string `db:"source_tag"`
}

type ImportStats struct {
	Records        int
	Rows           int
	Lines          int
	Flushes        int
	SkippedRecords int
}
