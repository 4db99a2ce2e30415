package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"agriconnect/models"
	"agriconnect/utils"
)

const pgBatchSize = 50

// PostgresCatalog persists the cleaned catalog to PostgreSQL in a farms table
// and a crops table. Catalog order is kept in farms.seq.
type PostgresCatalog struct {
	db *sql.DB
}

// NewPostgresCatalog opens a connection to PostgreSQL, retrying the ping while
// the server comes up, runs schema migrations and returns a ready store.
func NewPostgresCatalog(ctx context.Context, dsn string, retry utils.RetryConfig) (*PostgresCatalog, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	err = retry.DoContext(ctx, "postgres ping", func(ctx context.Context) error {
		return db.PingContext(ctx)
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pc := &PostgresCatalog{db: db}
	if err := pc.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return pc, nil
}

func (pc *PostgresCatalog) migrate(ctx context.Context) error {
	_, err := pc.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS farms (
			id             TEXT PRIMARY KEY,
			seq            INTEGER          NOT NULL,
			name           TEXT             NOT NULL DEFAULT '',
			farmer_name    TEXT             NOT NULL DEFAULT '',
			contact        TEXT             NOT NULL DEFAULT '',
			location       TEXT             NOT NULL DEFAULT '',
			state          TEXT             NOT NULL DEFAULT '',
			lat            DOUBLE PRECISION NOT NULL,
			lon            DOUBLE PRECISION NOT NULL,
			certified      BOOLEAN          NOT NULL DEFAULT FALSE,
			certifications TEXT[]           NOT NULL DEFAULT '{}',
			rating         NUMERIC(3,2)     NOT NULL DEFAULT 0,
			total_orders   INTEGER          NOT NULL DEFAULT 0,
			updated_at     TIMESTAMPTZ      NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS crops (
			farm_id        TEXT          NOT NULL REFERENCES farms(id) ON DELETE CASCADE,
			position       INTEGER       NOT NULL,
			crop_type      TEXT          NOT NULL,
			quantity       DOUBLE PRECISION NOT NULL DEFAULT 0,
			unit           TEXT          NOT NULL DEFAULT '',
			price_per_unit NUMERIC(12,2) NOT NULL DEFAULT 0,
			quality        TEXT          NOT NULL DEFAULT 'Standard',
			available_in   INTEGER       NOT NULL DEFAULT 0,
			forecast_date  TEXT          NOT NULL DEFAULT '',
			PRIMARY KEY (farm_id, position)
		);

		CREATE INDEX IF NOT EXISTS idx_farms_seq       ON farms(seq);
		CREATE INDEX IF NOT EXISTS idx_farms_state     ON farms(state);
		CREATE INDEX IF NOT EXISTS idx_farms_certified ON farms(certified);
		CREATE INDEX IF NOT EXISTS idx_crops_type      ON crops(crop_type);
		CREATE INDEX IF NOT EXISTS idx_crops_price     ON crops(price_per_unit);
	`)
	return err
}

// Write replaces the stored catalog in one transaction, inserting in batches.
func (pc *PostgresCatalog) Write(ctx context.Context, farms []*models.Farm) error {
	tx, err := pc.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM farms"); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}

	for i := 0; i < len(farms); i += pgBatchSize {
		end := i + pgBatchSize
		if end > len(farms) {
			end = len(farms)
		}
		if err := insertFarmBatch(ctx, tx, farms[i:end], i); err != nil {
			return fmt.Errorf("postgres: insert farms: %w", err)
		}
	}

	type cropRow struct {
		farmID string
		pos    int
		crop   models.Crop
	}
	var crops []cropRow
	for _, f := range farms {
		for pos, c := range f.Crops {
			crops = append(crops, cropRow{farmID: f.ID, pos: pos, crop: c})
		}
	}
	for i := 0; i < len(crops); i += pgBatchSize {
		end := i + pgBatchSize
		if end > len(crops) {
			end = len(crops)
		}
		batch := crops[i:end]

		valueStrings := make([]string, 0, len(batch))
		valueArgs := make([]interface{}, 0, len(batch)*9)
		for idx, r := range batch {
			base := idx * 9
			valueStrings = append(valueStrings,
				fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
					base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9))
			valueArgs = append(valueArgs,
				r.farmID, r.pos, r.crop.Type, r.crop.Quantity, r.crop.Unit,
				r.crop.PricePerUnit, string(r.crop.Quality), r.crop.AvailableIn, r.crop.ForecastDate)
		}
		query := fmt.Sprintf(`
			INSERT INTO crops (farm_id, position, crop_type, quantity, unit, price_per_unit, quality, available_in, forecast_date)
			VALUES %s
			ON CONFLICT (farm_id, position) DO NOTHING
		`, strings.Join(valueStrings, ","))
		if _, err := tx.ExecContext(ctx, query, valueArgs...); err != nil {
			return fmt.Errorf("postgres: insert crops: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func insertFarmBatch(ctx context.Context, tx *sql.Tx, batch []*models.Farm, offset int) error {
	const cols = 13
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, f := range batch {
		base := idx * cols
		ph := make([]string, cols)
		for k := range ph {
			ph[k] = fmt.Sprintf("$%d", base+k+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")

		certs := f.Certifications
		if certs == nil {
			certs = []string{}
		}
		valueArgs = append(valueArgs,
			f.ID, offset+idx, f.Name, f.FarmerName, f.Contact, f.Location, f.State,
			f.Lat, f.Lon, f.Certified, pq.Array(certs), f.Rating, f.TotalOrders)
	}

	query := fmt.Sprintf(`
		INSERT INTO farms (id, seq, name, farmer_name, contact, location, state, lat, lon, certified, certifications, rating, total_orders)
		VALUES %s
		ON CONFLICT (id) DO NOTHING
	`, strings.Join(valueStrings, ","))
	_, err := tx.ExecContext(ctx, query, valueArgs...)
	return err
}

// Load retrieves the stored catalog in the order it was written.
func (pc *PostgresCatalog) Load(ctx context.Context) ([]*models.Farm, error) {
	rows, err := pc.db.QueryContext(ctx, `
		SELECT id, name, farmer_name, contact, location, state, lat, lon,
		       certified, certifications, rating, total_orders
		FROM farms
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch farms: %w", err)
	}
	defer rows.Close()

	farms := []*models.Farm{}
	byID := make(map[string]*models.Farm)
	for rows.Next() {
		f := &models.Farm{}
		if err := rows.Scan(
			&f.ID, &f.Name, &f.FarmerName, &f.Contact, &f.Location, &f.State, &f.Lat, &f.Lon,
			&f.Certified, pq.Array(&f.Certifications), &f.Rating, &f.TotalOrders,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan farm: %w", err)
		}
		f.Crops = []models.Crop{}
		farms = append(farms, f)
		byID[f.ID] = f
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: fetch farms: %w", err)
	}

	cropRows, err := pc.db.QueryContext(ctx, `
		SELECT farm_id, crop_type, quantity, unit, price_per_unit, quality, available_in, forecast_date
		FROM crops
		ORDER BY farm_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch crops: %w", err)
	}
	defer cropRows.Close()

	for cropRows.Next() {
		var farmID, quality string
		var c models.Crop
		if err := cropRows.Scan(&farmID, &c.Type, &c.Quantity, &c.Unit, &c.PricePerUnit,
			&quality, &c.AvailableIn, &c.ForecastDate); err != nil {
			return nil, fmt.Errorf("postgres: scan crop: %w", err)
		}
		c.Quality = models.Quality(quality)
		if f, ok := byID[farmID]; ok {
			f.Crops = append(f.Crops, c)
		}
	}
	return farms, cropRows.Err()
}

func (pc *PostgresCatalog) Close() error {
	return pc.db.Close()
}
