package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"geoipload/internal/iprange"
	"geoipload/internal/model"
)

// DefaultBatchSize is how many expanded rows accumulate before a bulk
// upsert is issued.
const DefaultBatchSize = 5000

// CSV field positions in the DB-IP Lite format. Trailing fields beyond
// longitude are ignored.
const (
	fieldStartIP = iota
	fieldEndIP
	fieldCountry
	fieldStateProv
	fieldCity
	fieldLatitude
	fieldLongitude
	fieldCount
)

type GeoStore interface {
	SaveGeoRows(ctx context.Context, rows []model.GeoRow) error
	GetNetworksCount(ctx context.Context) (int64, error)
}

type Importer struct {
	store     GeoStore
	batchSize int
	logger    *zap.Logger
}

func NewImporter(store GeoStore, batchSize int, logger *zap.Logger) *Importer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Importer{
		store:     store,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Run streams CSV records from in, expands each IP range into CIDR rows
// and upserts them in batches. Records that cannot be parsed or expanded
// are skipped and counted; a flush that fails twice aborts the run with
// the remaining input unread.
func (i *Importer) Run(ctx context.Context, in io.Reader) (model.ImportStats, error) {
	var stats model.ImportStats

	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1

	batch := make([]model.GeoRow, 0, i.batchSize)
	startTime := time.Now()

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		stats.Lines++
		if err != nil {
			stats.SkippedRecords++
			i.logger.Warn("skipping unparseable line",
				zap.Int("line", stats.Lines),
				zap.Error(err))
			continue
		}

		rows, err := i.expandRecord(record)
		if err != nil {
			stats.SkippedRecords++
			i.logger.Warn("skipping record",
				zap.Int("line", stats.Lines),
				zap.Error(err))
			continue
		}

		batch = append(batch, rows...)
		stats.Records++
		stats.Rows += len(rows)

		if len(batch) >= i.batchSize {
			if err := i.flush(ctx, batch, &stats); err != nil {
				return stats, err
			}
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		if err := i.flush(ctx, batch, &stats); err != nil {
			return stats, err
		}
	}

	i.logger.Info("import finished",
		zap.Int("records", stats.Records),
		zap.Int("rows", stats.Rows),
		zap.Int("lines", stats.Lines),
		zap.Int("flushes", stats.Flushes),
		zap.Int("skipped_records", stats.SkippedRecords),
		zap.Duration("duration", time.Since(startTime)))

	return stats, nil
}

func (i *Importer) expandRecord(record []string) ([]model.GeoRow, error) {
	if len(record) < fieldCount {
		return nil, fmt.Errorf("expected at least %d fields, got %d", fieldCount, len(record))
	}

	prefixes, err := iprange.Expand(record[fieldStartIP], record[fieldEndIP])
	if err != nil {
		return nil, err
	}

	family := iprange.Family(record[fieldStartIP])
	city := asciiClean(record[fieldCity])
	stateProv := asciiClean(record[fieldStateProv])

	rows := make([]model.GeoRow, 0, len(prefixes))
	for _, prefix := range prefixes {
		rows = append(rows, model.GeoRow{
			AddressFamily:  family,
			Network:        prefix.String(),
			City:           city,
			StateProv:      stateProv,
			Country:        record[fieldCountry],
			Latitude:       record[fieldLatitude],
			Longitude:      record[fieldLongitude],
			TimezoneOffset: model.TimezoneOffset,
			TimezoneName:   model.TimezoneName,
			SourceTag:      model.SourceTag,
		})
	}
	return rows, nil
}

// flush upserts the batch, retrying the identical statement exactly once.
// A second failure is returned to the caller with the batch uncommitted.
func (i *Importer) flush(ctx context.Context, batch []model.GeoRow, stats *model.ImportStats) error {
	startTime := time.Now()

	err := i.store.SaveGeoRows(ctx, batch)
	if err != nil {
		i.logger.Error("flush failed, retrying once",
			zap.Int("batch_rows", len(batch)),
			zap.Error(err))
		err = i.store.SaveGeoRows(ctx, batch)
	}
	if err != nil {
		return fmt.Errorf("flushing batch of %d rows after retry: %w", len(batch), err)
	}

	stats.Flushes++
	i.logger.Info("flushed batch",
		zap.Int("batch_rows", len(batch)),
		zap.Int("total_rows", stats.Rows),
		zap.Int("lines", stats.Lines),
		zap.Duration("duration", time.Since(startTime)))
	return nil
}

// asciiClean drops any byte outside the ASCII range. Text fields in the
// stored table are ASCII-only; anything else is silently discarded rather
// than failing the record.
func asciiClean(s string) string {
	ascii := true
	for j := 0; j < len(s); j++ {
		if s[j] > 127 {
			ascii = false
			break
		}
	}
	if ascii {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s))
	for j := 0; j < len(s); j++ {
		if s[j] <= 127 {
			sb.WriteByte(s[j])
		}
	}
	return sb.String()
}
