package supabase

import (
	"bytes"
	"context"
	"net/http"

	"quill/internal/models"
	"quill/internal/observability"
)

const storagePath = "/storage/v1/object/"

// UploadObject stores bytes under bucket/name with the given content type and
// returns the object's public URL.
func (c *Client) UploadObject(ctx context.Context, bucket, name, contentType string, data []byte) (string, error) {
	status, body, _, err := c.do(ctx, request{
		method:  http.MethodPost,
		path:    storagePath + bucket + "/" + name,
		headers: map[string]string{"Content-Type": contentType},
		body:    bytes.NewReader(data),
		service: "storage",
	})
	if err != nil {
		observability.StorageFailures.WithLabelValues("upload").Inc()
		return "", err
	}
	if status >= http.StatusBadRequest {
		observability.StorageFailures.WithLabelValues("upload").Inc()
		return "", models.NewBackendError(decodeAPIError(status, body))
	}

	return c.PublicObjectURL(bucket, name), nil
}

// RemoveObject deletes bucket/name from storage.
func (c *Client) RemoveObject(ctx context.Context, bucket, name string) error {
	status, body, _, err := c.do(ctx, request{
		method:  http.MethodDelete,
		path:    storagePath + bucket + "/" + name,
		service: "storage",
	})
	if err != nil {
		observability.StorageFailures.WithLabelValues("remove").Inc()
		return err
	}
	if status == http.StatusNotFound {
		return models.NewNotFoundError("object", bucket+"/"+name)
	}
	if status >= http.StatusBadRequest {
		observability.StorageFailures.WithLabelValues("remove").Inc()
		return models.NewBackendError(decodeAPIError(status, body))
	}
	return nil
}

// PublicObjectURL returns the public URL for bucket/name.
func (c *Client) PublicObjectURL(bucket, name string) string {
	return c.baseURL + storagePath + "public/" + bucket + "/" + name
}
