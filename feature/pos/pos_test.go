package pos

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifyHMAC(t *testing.T) {
	valid := sign("abc", "hello")

	tampered := []byte(valid)
	if tampered[0] == 'A' {
		tampered[0] = 'B'
	} else {
		tampered[0] = 'A'
	}

	tests := []struct {
		name   string
		body   string
		sig    string
		secret string
		want   bool
	}{
		{"Valid", "hello", valid, "abc", true},
		{"BodyAltered", "hellp", valid, "abc", false},
		{"SignatureAltered", "hello", string(tampered), "abc", false},
		{"WrongSecret", "hello", valid, "abd", false},
		{"EmptySecret", "hello", valid, "", false},
		{"EmptySignature", "hello", "", "abc", false},
		{"InvalidBase64", "hello", "***", "abc", false},
		{"TruncatedSignature", "hello", base64.StdEncoding.EncodeToString([]byte("short")), "abc", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifyHMAC([]byte(tt.body), tt.sig, tt.secret))
		})
	}
}

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider("square")
	require.NoError(t, err)
	assert.Equal(t, ProviderSquare, p)
	assert.Equal(t, "square", p.Slug())

	p, err = ParseProvider(" TOAST ")
	require.NoError(t, err)
	assert.Equal(t, ProviderToast, p)

	_, err = ParseProvider("clover")
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestPageError(t *testing.T) {
	cause := errors.New("503 from upstream")
	var err error = PageError{Page: "2", Err: cause}

	assert.ErrorIs(t, err, ErrPartialFetch)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "page 2: 503 from upstream", err.Error())
}

func TestCredentials_CanRenew(t *testing.T) {
	assert.True(t, Credentials{Provider: ProviderSquare, Token: &oauth2.Token{RefreshToken: "r"}}.CanRenew())
	assert.False(t, Credentials{Provider: ProviderSquare, Token: &oauth2.Token{AccessToken: "a"}}.CanRenew())
	assert.True(t, Credentials{Provider: ProviderToast, ClientID: "id", ClientSecret: "s"}.CanRenew())
	assert.False(t, Credentials{Provider: ProviderToast, Token: &oauth2.Token{AccessToken: "manual"}}.CanRenew())
}

func TestTrigger_Valid(t *testing.T) {
	assert.True(t, TriggerManual.Valid())
	assert.True(t, TriggerWebhook.Valid())
	assert.True(t, TriggerSchedule.Valid())
	assert.False(t, Trigger("CRON").Valid())
}
