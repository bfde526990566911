package azure

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
)

// ErrOverrun is returned when a response body would write past the end of
// the caller-provided destination range. The offending bytes are not
// written, and the operation is never retried.
var ErrOverrun = errors.New("azure: response exceeds destination range")

// classifyTransport maps a request or body-copy error to a transport code.
// stalled distinguishes a stall-detector abort from an external cancel,
// since both surface as context.Canceled.
func classifyTransport(err error, stalled bool) int {
	if stalled {
		return TransportStalled
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return TransportTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return TransportDNS
	}

	var tlsErr *tls.CertificateVerificationError
	if errors.As(err, &tlsErr) {
		return TransportTLS
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return TransportTimeout
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch opErr.Op {
		case "dial":
			return TransportConnect
		case "write":
			return TransportSend
		}

		return TransportRecv
	}

	return TransportRecv
}
