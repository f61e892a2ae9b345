package gcsuploader

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// maxDownloadBytes guards against pulling an arbitrarily large object into memory.
const maxDownloadBytes = 64 << 20

func DownloadFile(ctx context.Context, client *storage.Client, bucketName, objectName string) ([]byte, error) {
	r, err := client.Bucket(bucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open GCS object reader %s/%s: %w", bucketName, objectName, err)
	}
	defer r.Close()

	if r.Attrs.Size > maxDownloadBytes {
		return nil, fmt.Errorf("GCS object %s/%s is %d bytes, limit is %d", bucketName, objectName, r.Attrs.Size, maxDownloadBytes)
	}

	data, err := io.ReadAll(io.LimitReader(r, maxDownloadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read GCS object: %w", err)
	}
	if len(data) > maxDownloadBytes {
		return nil, fmt.Errorf("GCS object %s/%s exceeds %d bytes", bucketName, objectName, maxDownloadBytes)
	}

	return data, nil
}
