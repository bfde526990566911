// Package azure provides an HTTP transport client for the Azure Blob
// service with retry classification, stall detection, and numeric
// status aggregation across parallel transfers.
package azure

// Transport-layer outcome codes. Zero is success; every failure code is
// strictly greater so that worst-of aggregation surfaces failures.
const (
	TransportOK      = 0
	TransportDNS     = 1
	TransportConnect = 2
	TransportTLS     = 3
	TransportTimeout = 4
	TransportStalled = 5
	TransportSend    = 6
	TransportRecv    = 7
	TransportWrite   = 8
	TransportAuth    = 9

	// TransportNoCredential is the sentinel reported (on both axes) when a
	// token refresh is requested without any credential source configured.
	TransportNoCredential = 1000
)

// httpOK is the HTTP axis success sentinel. Transport-level failures
// produce no HTTP status at all; they report httpOK on the HTTP axis so
// that worst-of aggregation keys off the transport axis alone.
const httpOK = 200

// Status is the outcome of one transport attempt, carried on two
// independently comparable axes. Success is the minimum value on each
// axis, so the elementwise maximum of a set of statuses is the worst
// outcome observed.
type Status struct {
	// Transport is a transport-layer code (TransportOK on success).
	Transport int
	// HTTP is the protocol status code (200 on success, or when the
	// request never produced a response).
	HTTP int
	// RetryAfter is the server-requested delay in seconds, from the
	// Retry-After response header. Zero when absent or unparsable.
	RetryAfter int
}

// OKStatus returns the all-success status value.
func OKStatus() Status {
	return Status{Transport: TransportOK, HTTP: httpOK}
}

// OK reports whether the attempt succeeded on both axes.
func (s Status) OK() bool {
	return s.Transport == TransportOK && s.HTTP < 300
}

// Worst returns the elementwise maximum of two statuses, computed
// independently per axis. Because success is minimal on each axis, the
// result is success only if both inputs are.
func Worst(a, b Status) Status {
	return Status{
		Transport:  max(a.Transport, b.Transport),
		HTTP:       max(a.HTTP, b.HTTP),
		RetryAfter: max(a.RetryAfter, b.RetryAfter),
	}
}
