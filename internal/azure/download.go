package azure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

// GetRange reads exactly the byte range [offset, offset+len(dst)) of the
// blob into dst. Any response byte that would land past the end of dst
// fails the operation with ErrOverrun before being written; truncation
// is never silent. A non-nil error is local and final — transport and
// protocol failures come back as data in the Status.
func (c *Client) GetRange(
	ctx context.Context, blob BlobRef, offset int64, dst []byte,
) (Status, error) {
	c.logger.Debug("reading range",
		slog.String("blob", blob.Name),
		slog.Int64("offset", offset),
		slog.Int("length", len(dst)),
	)

	header := http.Header{}
	header.Set("x-ms-version", c.apiVersion)
	// Range end is inclusive.
	header.Set("Range", fmt.Sprintf("bytes=%d-%d", offset, offset+int64(len(dst))-1))

	if err := c.authorize(header); err != nil {
		return Status{Transport: TransportAuth, HTTP: httpOK}, err
	}

	w := &rangeWriter{buf: dst}

	st, err := c.performErr(ctx, http.MethodGet, c.blobURL(blob), header, nil, w)
	if err != nil {
		c.logger.Error("range read overran destination",
			slog.String("blob", blob.Name),
			slog.Int64("offset", offset),
			slog.Int("length", len(dst)),
		)

		st.Transport = max(st.Transport, TransportWrite)

		return st, err
	}

	return st, nil
}

// Size fetches the blob's total length via a HEAD request. Useful when
// the caller does not know the size to download.
func (c *Client) Size(ctx context.Context, blob BlobRef) (int64, Status, error) {
	header := http.Header{}
	header.Set("x-ms-version", c.apiVersion)

	if err := c.authorize(header); err != nil {
		return 0, Status{Transport: TransportAuth, HTTP: httpOK}, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.blobURL(blob), http.NoBody)
	if err != nil {
		return 0, Status{Transport: TransportSend, HTTP: httpOK}, fmt.Errorf("azure: building head request: %w", err)
	}

	req.Header = header
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, Status{Transport: classifyTransport(err, false), HTTP: httpOK}, nil
	}
	defer resp.Body.Close()

	st := Status{Transport: TransportOK, HTTP: resp.StatusCode}
	if !st.OK() {
		return 0, st, nil
	}

	size, err := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
	if err != nil {
		return 0, st, fmt.Errorf("azure: blob size unavailable: %w", err)
	}

	return size, st, nil
}

// rangeWriter writes into a fixed destination slice and fails fast when
// a write would pass the end. The overflowing bytes are not written.
type rangeWriter struct {
	buf []byte
	n   int
}

func (w *rangeWriter) Write(p []byte) (int, error) {
	if w.n+len(p) > len(w.buf) {
		return 0, fmt.Errorf("%w: %d bytes into %d-byte range", ErrOverrun, w.n+len(p), len(w.buf))
	}

	copy(w.buf[w.n:], p)
	w.n += len(p)

	return len(p), nil
}

func isOverrun(err error) bool {
	return errors.Is(err, ErrOverrun)
}
