package port

import "context"

// ObjectFetcher reads a single object from remote object storage. It backs
// s3:// document URLs in the acquirer.
type ObjectFetcher interface {
	FetchObject(ctx context.Context, bucket, key string) ([]byte, error)
}
