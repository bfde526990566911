package azure

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const userAgent = "azblob-go/0.1"

// TokenSource provides OAuth2 bearer tokens. Defined at the consumer
// (azure package) per Go convention "accept interfaces, return structs".
// internal/identity provides the real implementation.
type TokenSource interface {
	Token() (string, error)
}

// BlobRef names one blob. LeaseID, when set, is sent as x-ms-lease-id on
// writes to a leased blob.
type BlobRef struct {
	Account   string
	Container string
	Name      string
	LeaseID   string
}

// URL returns the blob endpoint URL.
func (b BlobRef) URL() string {
	return fmt.Sprintf("https://%s.blob.core.windows.net/%s/%s",
		b.Account, url.PathEscape(b.Container), url.PathEscape(b.Name))
}

// Client executes single HTTPS requests against the blob service and the
// token endpoint. It builds headers, captures Retry-After, classifies
// transport failures to numeric codes, and guards every body copy with a
// stall detector. It performs no retries itself; wrap calls with a
// Policy.
type Client struct {
	httpClient  *http.Client
	token       TokenSource
	apiVersion  string
	readTimeout time.Duration
	logger      *slog.Logger

	// baseURL overrides the per-account service endpoint. Tests point it
	// at an httptest server; empty means the standard blob endpoint.
	baseURL string
}

// blobURL resolves the request URL for a blob, honoring baseURL.
func (c *Client) blobURL(b BlobRef) string {
	if c.baseURL == "" {
		return b.URL()
	}

	return fmt.Sprintf("%s/%s/%s", c.baseURL, url.PathEscape(b.Container), url.PathEscape(b.Name))
}

// NewClient creates a transport client. apiVersion is the x-ms-version
// header value sent on every storage request. readTimeout is the stall
// window: a request whose byte count does not move for that long is
// aborted. Zero disables stall detection.
func NewClient(
	httpClient *http.Client, token TokenSource, apiVersion string,
	readTimeout time.Duration, logger *slog.Logger,
) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		httpClient:  httpClient,
		token:       token,
		apiVersion:  apiVersion,
		readTimeout: readTimeout,
		logger:      logger,
	}
}

// NewHTTPClient returns an *http.Client whose dialer enforces the given
// connect timeout. The connect timeout bounds connection setup only;
// in-flight progress is guarded separately by the stall detector.
func NewHTTPClient(connectTimeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: connectTimeout}

	return &http.Client{
		Transport: &http.Transport{
			DialContext:         dialer.DialContext,
			ForceAttemptHTTP2:   true,
			MaxIdleConnsPerHost: 32,
		},
	}
}

// PostForm sends a form-encoded POST (no Authorization header) and
// accumulates the full response body into an owned buffer. Used for the
// token endpoint. The body is returned even on protocol failure so the
// caller can decide what to extract.
func (c *Client) PostForm(ctx context.Context, endpoint string, form url.Values) ([]byte, Status) {
	header := http.Header{}
	header.Set("Content-Type", "application/x-www-form-urlencoded")

	var buf bytes.Buffer
	st := c.perform(ctx, http.MethodPost, endpoint, header, []byte(form.Encode()), &buf)

	return buf.Bytes(), st
}

// authorize builds the Authorization header value from the token source.
func (c *Client) authorize(header http.Header) error {
	tok, err := c.token.Token()
	if err != nil {
		return fmt.Errorf("azure: obtaining token: %w", err)
	}

	header.Set("Authorization", "Bearer "+tok)

	return nil
}

// perform executes one request: derived cancelable context, stall
// detection on both directions, Retry-After capture, and body copy into
// sink (io.Discard when nil). Transport and protocol failures are
// returned as data in the Status; the error return is reserved for
// local failures such as a destination overrun.
func (c *Client) perform(
	ctx context.Context, method, reqURL string, header http.Header, body []byte, sink io.Writer,
) Status {
	st, err := c.performErr(ctx, method, reqURL, header, body, sink)
	if err != nil {
		// Local sink failures funnel into the write code; ErrOverrun is
		// surfaced separately by GetRange, which uses performErr directly.
		st.Transport = max(st.Transport, TransportWrite)
	}

	return st
}

func (c *Client) performErr(
	ctx context.Context, method, reqURL string, header http.Header, body []byte, sink io.Writer,
) (Status, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	det := newStallDetector(c.readTimeout, cancel)
	if c.readTimeout > 0 {
		go det.run(ctx)
	}

	var reqBody io.Reader
	if body != nil {
		reqBody = det.reader(bytes.NewReader(body))
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		c.logger.Error("building request failed",
			slog.String("method", method),
			slog.String("error", err.Error()),
		)

		return Status{Transport: TransportSend, HTTP: httpOK}, nil
	}

	if body != nil {
		req.ContentLength = int64(len(body))
	}

	req.Header = header
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		code := classifyTransport(err, det.aborted.Load())
		c.logger.Warn("request failed below the protocol layer",
			slog.String("method", method),
			slog.Int("transport_code", code),
			slog.String("error", err.Error()),
		)

		return Status{Transport: code, HTTP: httpOK}, nil
	}
	defer resp.Body.Close()

	st := Status{
		Transport:  TransportOK,
		HTTP:       resp.StatusCode,
		RetryAfter: parseRetryAfter(resp.Header, c.logger),
	}

	if sink == nil {
		sink = io.Discard
	}

	if _, copyErr := io.Copy(sink, det.reader(resp.Body)); copyErr != nil {
		if isOverrun(copyErr) {
			return st, copyErr
		}

		st.Transport = classifyTransport(copyErr, det.aborted.Load())
	}

	if !st.OK() {
		c.logger.Warn("request completed with failure status",
			slog.String("method", method),
			slog.Int("transport_code", st.Transport),
			slog.Int("http_code", st.HTTP),
		)
	}

	return st, nil
}

// parseRetryAfter extracts the Retry-After header as whole seconds.
// An unparsable value is reported and treated as absent.
func parseRetryAfter(header http.Header, logger *slog.Logger) int {
	ra := header.Get("Retry-After")
	if ra == "" {
		return 0
	}

	seconds, err := strconv.Atoi(ra)
	if err != nil || seconds < 0 {
		logger.Warn("unable to parse Retry-After header, ignoring",
			slog.String("value", ra),
		)

		return 0
	}

	return seconds
}
