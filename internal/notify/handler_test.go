package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEmail() Email {
	return Email{
		Personalizations: []Personalization{
			{To: []Contact{{Email: "to@example.com", Name: "Recipient"}}},
		},
		From:    Contact{Email: "from@example.com", Name: "Sender"},
		Subject: "Hello",
		Content: []Content{{Type: "text/plain", Value: "Hi there"}},
	}
}

func TestEmailValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Email)
		wantErr bool
	}{
		{"valid", func(*Email) {}, false},
		{"no personalizations", func(e *Email) { e.Personalizations = nil }, true},
		{"no recipients", func(e *Email) { e.Personalizations[0].To = nil }, true},
		{"bad recipient address", func(e *Email) { e.Personalizations[0].To[0].Email = "nope" }, true},
		{"bad sender address", func(e *Email) { e.From.Email = "@example.com" }, true},
		{"missing subject", func(e *Email) { e.Subject = "" }, true},
		{"no content", func(e *Email) { e.Content = nil }, true},
		{"empty content value", func(e *Email) { e.Content[0].Value = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email := validEmail()
			tt.mutate(&email)

			err := email.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func newTestHandler(endpoint, token string) *Handler {
	return &Handler{
		service: &Service{
			httpClient: &http.Client{Timeout: 5 * time.Second},
			endpoint:   endpoint,
		},
		token: token,
	}
}

func sendRequest(h *Handler, token, body string) *httptest.ResponseRecorder {
	e := echo.New()
	h.RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodPost, "/email/send", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func marshalSendRequest(t *testing.T, email Email) string {
	t.Helper()
	payload, err := json.Marshal(SendRequest{Email: email})
	require.NoError(t, err)
	return string(payload)
}

func TestHandleSend(t *testing.T) {
	var relayed Email
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&relayed))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer provider.Close()

	h := newTestHandler(provider.URL, "secret")

	rec := sendRequest(h, "secret", marshalSendRequest(t, validEmail()))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	assert.Equal(t, "Hello", relayed.Subject)
	assert.Equal(t, "to@example.com", relayed.Personalizations[0].To[0].Email)
}

func TestHandleSendMissingConfiguredToken(t *testing.T) {
	h := newTestHandler("", "")

	rec := sendRequest(h, "anything", marshalSendRequest(t, validEmail()))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Missing email token", rec.Body.String())
}

func TestHandleSendWrongBearer(t *testing.T) {
	h := newTestHandler("", "secret")

	rec := sendRequest(h, "wrong", marshalSendRequest(t, validEmail()))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = sendRequest(h, "", marshalSendRequest(t, validEmail()))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleSendInvalidBody(t *testing.T) {
	h := newTestHandler("", "secret")

	rec := sendRequest(h, "secret", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	email := validEmail()
	email.Subject = ""
	rec = sendRequest(h, "secret", marshalSendRequest(t, email))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSendProviderFailure(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer provider.Close()

	h := newTestHandler(provider.URL, "secret")

	rec := sendRequest(h, "secret", marshalSendRequest(t, validEmail()))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Failed to send email", rec.Body.String())
}
