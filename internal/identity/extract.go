package identity

import (
	"strconv"
	"strings"
)

// Field-name markers located in token endpoint responses. Only these
// three fields are ever extracted; everything else in the body is
// skipped over.
const (
	markerAccessToken  = `"access_token"`
	markerRefreshToken = `"refresh_token"`
	markerExpiresOn    = `"expires_on"`
)

// tokenFields holds the raw values pulled from a token response.
// A nil pointer means the field did not appear.
type tokenFields struct {
	accessToken  *string
	refreshToken *string
	expiresOn    *string
}

// scanTokenFields walks the response body looking for the three known
// field-name markers. After a marker match, the value is the substring
// strictly between the next two quote characters; scanning resumes just
// past the marker (not past the extracted value), so fields may appear
// in any order with arbitrary surrounding structure. This is a narrow
// targeted extractor, not a JSON decoder: token responses are small and
// only these fields matter.
func scanTokenFields(body string) tokenFields {
	var f tokenFields

	for i := 0; i < len(body); {
		switch {
		case strings.HasPrefix(body[i:], markerAccessToken):
			i += len(markerAccessToken)
			if v, ok := nextQuoted(body[i:]); ok {
				f.accessToken = &v
			}
		case strings.HasPrefix(body[i:], markerRefreshToken):
			i += len(markerRefreshToken)
			if v, ok := nextQuoted(body[i:]); ok {
				f.refreshToken = &v
			}
		case strings.HasPrefix(body[i:], markerExpiresOn):
			i += len(markerExpiresOn)
			if v, ok := nextQuoted(body[i:]); ok {
				f.expiresOn = &v
			}
		default:
			i++
		}
	}

	return f
}

// nextQuoted returns the substring strictly between the next two quote
// characters of s. Reports false when fewer than two quotes remain.
func nextQuoted(s string) (string, bool) {
	first := strings.IndexByte(s, '"')
	if first < 0 {
		return "", false
	}

	second := strings.IndexByte(s[first+1:], '"')
	if second < 0 {
		return "", false
	}

	return s[first+1 : first+1+second], true
}

// parseExpiry converts the expires_on value (epoch seconds, quoted in
// the response) to an int64. Reports false on malformed input.
func parseExpiry(s string) (int64, bool) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return 0, false
	}

	return v, true
}
