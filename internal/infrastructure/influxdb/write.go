package influxdb

import (
	"context"
	"fmt"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WritePoint writes one point with the given fields and no tags.
//
// The point carries no timestamp; the server assigns the ingestion time.
// The call blocks until the server has accepted or rejected the write.
//
// Example:
//
//	err := client.WritePoint(ctx, "power", map[string]any{"current": 12.5})
func (c *Client) WritePoint(ctx context.Context, measurement string, fields map[string]any) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	point := write.NewPoint(measurement, nil, fields, time.Time{})

	if err := c.writeAPI.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	return nil
}
