package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"geoipload/internal/model"
)

const geoRowColumns = 10

type PostgresRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewPostgresRepository(db *sqlx.DB, logger *zap.Logger) *PostgresRepository {
	return &PostgresRepository{
		db:     db,
		logger: logger,
	}
}

// SaveGeoRows upserts the whole batch as a single statement inside one
// committed transaction. The conflict target is the network prefix; on
// conflict only the geographic attributes are refreshed, the family,
// timezone and source tag of the existing row are left as they are.
func (r *PostgresRepository) SaveGeoRows(ctx context.Context, rows []model.GeoRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query, args := buildUpsertQuery(rows)

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("failed to upsert geo rows",
			zap.Int("rows", len(rows)),
			zap.Error(err))
		return err
	}

	return tx.Commit()
}

// buildUpsertQuery binds every value positionally; input text never
// reaches the statement itself.
func buildUpsertQuery(rows []model.GeoRow) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO geo_ip (address_family, network, city, stateprov, country, latitude, longitude, timezone_offset, timezone_name, source_tag) VALUES `)

	args := make([]interface{}, 0, len(rows)*geoRowColumns)
	for i, row := range rows {
		if i > 0 {
			sb.WriteByte(',')
		}
		base := i * geoRowColumns
		fmt.Fprintf(&sb, "($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5,
			base+6, base+7, base+8, base+9, base+10)
		args = append(args,
			row.AddressFamily,
			row.Network,
			row.City,
			row.StateProv,
			row.Country,
			row.Latitude,
			row.Longitude,
			row.TimezoneOffset,
			row.TimezoneName,
			row.SourceTag)
	}

	sb.WriteString(` ON CONFLICT (network) DO UPDATE SET
            city = EXCLUDED.city,
            stateprov = EXCLUDED.stateprov,
            country = EXCLUDED.country,
            latitude = EXCLUDED.latitude,
            longitude = EXCLUDED.longitude`)

	return sb.String(), args
}

func (r *PostgresRepository) GetNetworksCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, "SELECT count(*) FROM geo_ip")
	return count, err
}
