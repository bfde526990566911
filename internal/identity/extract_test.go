package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanTokenFields_AllFields(t *testing.T) {
	body := `{"access_token":"AAA","expires_on":"123456","refresh_token":"BBB"}`

	f := scanTokenFields(body)
	require.NotNil(t, f.accessToken)
	require.NotNil(t, f.refreshToken)
	require.NotNil(t, f.expiresOn)
	assert.Equal(t, "AAA", *f.accessToken)
	assert.Equal(t, "BBB", *f.refreshToken)
	assert.Equal(t, "123456", *f.expiresOn)
}

func TestScanTokenFields_ArbitraryOrder(t *testing.T) {
	bodies := []string{
		`{"refresh_token":"BBB","access_token":"AAA","expires_on":"123456"}`,
		`{"expires_on":"123456","refresh_token":"BBB","access_token":"AAA"}`,
		`{"token_type":"Bearer","expires_in":"3599","access_token":"AAA","not_before":"1","expires_on":"123456","resource":"r","refresh_token":"BBB"}`,
	}

	for _, body := range bodies {
		f := scanTokenFields(body)
		require.NotNil(t, f.accessToken, body)
		require.NotNil(t, f.refreshToken, body)
		require.NotNil(t, f.expiresOn, body)
		assert.Equal(t, "AAA", *f.accessToken)
		assert.Equal(t, "BBB", *f.refreshToken)
		assert.Equal(t, "123456", *f.expiresOn)
	}
}

func TestScanTokenFields_OnlyRecognizedFields(t *testing.T) {
	body := `{"access_token":"AAA","id_token":"IGNORED","expires_on":"99"}`

	f := scanTokenFields(body)
	require.NotNil(t, f.accessToken)
	assert.Equal(t, "AAA", *f.accessToken)
	assert.Nil(t, f.refreshToken)
	require.NotNil(t, f.expiresOn)
	assert.Equal(t, "99", *f.expiresOn)
}

func TestScanTokenFields_AbsentFieldsStayNil(t *testing.T) {
	f := scanTokenFields(`{"token_type":"Bearer"}`)
	assert.Nil(t, f.accessToken)
	assert.Nil(t, f.refreshToken)
	assert.Nil(t, f.expiresOn)
}

func TestScanTokenFields_TruncatedValueTolerated(t *testing.T) {
	// Truncated mid-value: extraction is best-effort, never a panic.
	f := scanTokenFields(`{"access_token":"AA`)
	assert.Nil(t, f.accessToken)
}

func TestNextQuoted(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{`:"value",`, "value", true},
		{`  :  "v"`, "v", true},
		{`:""`, "", true},
		{`no quotes`, "", false},
		{`:"unterminated`, "", false},
	}

	for _, tt := range tests {
		got, ok := nextQuoted(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseExpiry(t *testing.T) {
	v, ok := parseExpiry("123456")
	assert.True(t, ok)
	assert.Equal(t, int64(123456), v)

	_, ok = parseExpiry("not-a-number")
	assert.False(t, ok)

	_, ok = parseExpiry("-5")
	assert.False(t, ok)
}
