package dbcontext

import "context"

// DefaultBatchSize is the number of entities per chunk used by the
// bulk helpers when the caller passes a non-positive batch size.
const DefaultBatchSize = 100

// BulkInsert chunks entities and hands each chunk to fn inside one
// transaction. Either the whole batch commits or everything applied so
// far rolls back together; there are no partial commits of sub-batches.
// Returns the number of entities processed.
func BulkInsert[T any](ctx context.Context, c *DatabaseContext, entities []T, batchSize int, fn func(ctx context.Context, chunk []T) error) (int, error) {
	return bulkExecute(ctx, c, "bulk insert", entities, batchSize, fn)
}

// BulkUpdate is the update-side counterpart of BulkInsert with the
// same all-or-nothing guarantee.
func BulkUpdate[T any](ctx context.Context, c *DatabaseContext, entities []T, batchSize int, fn func(ctx context.Context, chunk []T) error) (int, error) {
	return bulkExecute(ctx, c, "bulk update", entities, batchSize, fn)
}

func bulkExecute[T any](ctx context.Context, c *DatabaseContext, op string, entities []T, batchSize int, fn func(ctx context.Context, chunk []T) error) (int, error) {
	if len(entities) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	err := c.InTransaction(ctx, func(ctx context.Context) error {
		for start := 0; start < len(entities); start += batchSize {
			end := min(start+batchSize, len(entities))
			if err := fn(ctx, entities[start:end]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	c.logger.Debug(op+" completed", "count", len(entities), "batch_size", batchSize)
	return len(entities), nil
}
