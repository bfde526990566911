package azure

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
)

// PutBlock stages data as one named block of the blob. Blocks are
// independently retryable; assembling them into the final blob (Put
// Block List) is the caller's follow-up step and is not performed here.
func (c *Client) PutBlock(
	ctx context.Context, blob BlobRef, blockID string, data []byte,
) (Status, error) {
	c.logger.Debug("putting block",
		slog.String("blob", blob.Name),
		slog.String("block_id", blockID),
		slog.Int("length", len(data)),
	)

	header := http.Header{}
	header.Set("x-ms-version", c.apiVersion)
	header.Set("Content-Type", "application/octet-stream")
	header.Set("Content-Length", strconv.Itoa(len(data)))

	if blob.LeaseID != "" {
		header.Set("x-ms-lease-id", blob.LeaseID)
	}

	if err := c.authorize(header); err != nil {
		return Status{Transport: TransportAuth, HTTP: httpOK}, err
	}

	reqURL := c.blobURL(blob) + "?comp=block&blockid=" + url.QueryEscape(blockID)

	return c.perform(ctx, http.MethodPut, reqURL, header, data, nil), nil
}
