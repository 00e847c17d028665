package timing

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const addProcessTimeSQL = `
INSERT INTO process_times (byte_size, duration_ms)
VALUES ($1, $2);
`

// Recent runs only, so estimates track the currently configured models.
const predictProcessTimeSQL = `
SELECT COALESCE(AVG(duration_ms::float8 / GREATEST(byte_size, 1)), 0)
FROM (
	SELECT byte_size, duration_ms
	FROM process_times
	ORDER BY created_at DESC
	LIMIT 50
) recent;
`

// AddProcessTime records how long processing a paper of the given byte size
// took. The samples feed the duration estimate shown while polling.
func AddProcessTime(ctx context.Context, conn *pgxpool.Pool, byteSize int64, durationMs int64) error {
	_, err := conn.Exec(ctx, addProcessTimeSQL, byteSize, durationMs)
	return err
}

// PredictProcessTime estimates the processing duration in milliseconds for a
// paper of the given byte size from recent samples. It returns 0 when no
// samples exist yet.
func PredictProcessTime(ctx context.Context, conn *pgxpool.Pool, byteSize int64) (int64, error) {
	var msPerByte float64
	if err := conn.QueryRow(ctx, predictProcessTimeSQL).Scan(&msPerByte); err != nil {
		return 0, err
	}
	return int64(msPerByte * float64(byteSize)), nil
}
