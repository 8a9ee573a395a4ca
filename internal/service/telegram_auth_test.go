package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// signInitData produces a valid init_data string the way Telegram does:
// HMAC-SHA256 over the sorted key=value lines, keyed by
// HMAC("WebAppData", botToken).
func signInitData(t *testing.T, botToken string, fields map[string]string) string {
	t.Helper()

	var lines []string
	for k, v := range fields {
		lines = append(lines, k+"="+v)
	}
	sort.Strings(lines)

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	h := hmac.New(sha256.New, secret.Sum(nil))
	h.Write([]byte(strings.Join(lines, "\n")))

	vals := url.Values{}
	for k, v := range fields {
		vals.Set(k, v)
	}
	vals.Set("hash", hex.EncodeToString(h.Sum(nil)))
	return vals.Encode()
}

func TestValidateTelegramInitData(t *testing.T) {
	botToken := "123456:test-token"
	fields := map[string]string{
		"auth_date": fmt.Sprintf("%d", time.Now().Unix()),
		"user":      `{"id":42,"username":"alice","first_name":"Alice"}`,
	}

	values, ok := ValidateTelegramInitData(signInitData(t, botToken, fields), botToken)
	assert.True(t, ok)
	assert.Contains(t, values.Get("user"), `"id":42`)
}

func TestValidateTelegramInitDataWrongToken(t *testing.T) {
	fields := map[string]string{
		"auth_date": fmt.Sprintf("%d", time.Now().Unix()),
		"user":      `{"id":42}`,
	}
	_, ok := ValidateTelegramInitData(signInitData(t, "token-a", fields), "token-b")
	assert.False(t, ok)
}

func TestValidateTelegramInitDataMissingHash(t *testing.T) {
	_, ok := ValidateTelegramInitData("user=%7B%22id%22%3A1%7D&auth_date=1", "token")
	assert.False(t, ok)
}

func TestValidateTelegramInitDataStale(t *testing.T) {
	botToken := "123456:test-token"
	fields := map[string]string{
		"auth_date": fmt.Sprintf("%d", time.Now().Add(-2*time.Hour).Unix()),
		"user":      `{"id":42}`,
	}
	_, ok := ValidateTelegramInitData(signInitData(t, botToken, fields), botToken)
	assert.False(t, ok)
}

func TestValidateTelegramInitDataTampered(t *testing.T) {
	botToken := "123456:test-token"
	fields := map[string]string{
		"auth_date": fmt.Sprintf("%d", time.Now().Unix()),
		"user":      `{"id":42}`,
	}
	data := signInitData(t, botToken, fields)
	tampered := strings.Replace(data, "42", "43", 1)
	_, ok := ValidateTelegramInitData(tampered, botToken)
	assert.False(t, ok)
}

func TestCountryFromLanguage(t *testing.T) {
	assert.Equal(t, "US", countryFromLanguage("en"))
	assert.Equal(t, "BR", countryFromLanguage("pt-br"))
	assert.Equal(t, "GB", countryFromLanguage("en-gb"))
	assert.Equal(t, "", countryFromLanguage("eo"))
	assert.Equal(t, "", countryFromLanguage(""))
}
