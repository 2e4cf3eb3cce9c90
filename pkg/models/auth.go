package models

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// Token represents an OAuth token for a cloud storage provider. Its JSON
// form doubles as the wire format of the base64 bearer blob, so the field
// names and the millisecond expiry encoding must not change.
type Token struct {
	AccessToken  string `json:"access_token"`
	ExpiryDate   int64  `json:"expiry_date"` // Unix milliseconds
	RefreshToken string `json:"refresh_token"`
}

// IsExpired reports whether the access token must be refreshed before use.
func (t *Token) IsExpired() bool {
	return t.ExpiryDate <= time.Now().UnixMilli()
}

// Encode serializes the token into the base64 blob handed to clients.
func (t *Token) Encode() string {
	data, _ := json.Marshal(t)
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeToken parses a base64 bearer blob. It returns nil if the payload is
// not valid base64 JSON or any of the three token fields is missing.
func DecodeToken(blob string) *Token {
	data, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil
	}

	var token Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil
	}

	if token.AccessToken == "" || token.ExpiryDate == 0 || token.RefreshToken == "" {
		return nil
	}

	return &token
}

// ProviderConfig holds the OAuth client settings for a single provider,
// injected from the environment when an adapter is constructed.
type ProviderConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURI  string `json:"redirect_uri"`
}

// Complete reports whether the config carries everything needed to run an
// OAuth flow.
func (c *ProviderConfig) Complete() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RedirectURI != ""
}
