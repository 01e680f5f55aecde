package influxdb

import (
	"context"
	"fmt"
	"strings"
)

// EnsureDatabase makes sure the bucket named by the configured database
// exists, creating it in the configured organisation if it does not.
//
// It is idempotent: an existing bucket, or one created concurrently by
// another writer, is not an error. New buckets get infinite retention.
func (c *Client) EnsureDatabase(ctx context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	bucketsAPI := c.client.BucketsAPI()

	if _, err := bucketsAPI.FindBucketByName(ctx, c.cfg.Database); err == nil {
		return nil
	}

	org, err := c.client.OrganizationsAPI().FindOrganizationByName(ctx, c.cfg.Org)
	if err != nil {
		return fmt.Errorf("%w: finding org %q: %w", ErrBucketFailed, c.cfg.Org, err)
	}

	if _, err := bucketsAPI.CreateBucketWithName(ctx, org, c.cfg.Database); err != nil {
		if isAlreadyExists(err) {
			return nil
		}
		return fmt.Errorf("%w: creating bucket %q: %w", ErrBucketFailed, c.cfg.Database, err)
	}

	return nil
}

// isAlreadyExists reports whether err is the server's duplicate-bucket conflict.
func isAlreadyExists(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}
