package whatsapp_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"photobot/models"
	"photobot/whatsapp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var creds = models.Credentials{Token: "secret-token", PhoneNumberID: "1234"}

func newClient(t *testing.T, handler http.Handler) *whatsapp.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := whatsapp.ClientFromCredentials(creds,
		whatsapp.WithBaseURL(srv.URL),
		whatsapp.WithAPIVersion("v21.0"),
		whatsapp.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return client
}

func TestClientFromCredentialsRequiresBoth(t *testing.T) {
	tests := []struct {
		name  string
		creds models.Credentials
	}{
		{name: "no token", creds: models.Credentials{PhoneNumberID: "1"}},
		{name: "no phone id", creds: models.Credentials{Token: "t"}},
		{name: "blank", creds: models.Credentials{Token: " ", PhoneNumberID: " "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := whatsapp.ClientFromCredentials(tt.creds)
			assert.ErrorIs(t, err, whatsapp.ErrMissingCredentials)
		})
	}
}

func TestSendImageURL(t *testing.T) {
	var got map[string]any
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v21.0/1234/messages", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Write([]byte(`{"messaging_product":"whatsapp","contacts":[{"input":"+15551234567","wa_id":"15551234567"}],"messages":[{"id":"wamid.ABC"}]}`))
	}))

	id, err := client.SendImageURL(context.Background(), "+15551234567", "https://example.com/a.jpg", "hello")
	require.NoError(t, err)
	assert.Equal(t, "wamid.ABC", id)

	assert.Equal(t, "whatsapp", got["messaging_product"])
	assert.Equal(t, "+15551234567", got["to"])
	assert.Equal(t, "image", got["type"])
	assert.Equal(t, map[string]any{"link": "https://example.com/a.jpg", "caption": "hello"}, got["image"])
}

func TestSendImageURLAPIError(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Invalid OAuth access token.","type":"OAuthException","code":190,"fbtrace_id":"xyz"}}`))
	}))

	_, err := client.SendImageURL(context.Background(), "+1", "https://example.com/a.jpg", "")
	var apiErr *whatsapp.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, whatsapp.CodeInvalidToken, apiErr.Code)
	assert.Equal(t, "xyz", apiErr.TraceID)
	assert.True(t, apiErr.IsAuth())
}

func TestSendImageURLWithoutMessageID(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"messaging_product":"whatsapp","messages":[]}`))
	}))

	_, err := client.SendImageURL(context.Background(), "+1", "https://example.com/a.jpg", "")
	assert.Error(t, err)
}

func TestSendImageFileUploadsThenSends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg-bytes"), 0o600))

	var sent map[string]any
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v21.0/1234/media":
			assert.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "whatsapp", r.FormValue("messaging_product"))
			assert.Equal(t, "image/jpeg", r.FormValue("type"))

			file, header, err := r.FormFile("file")
			if !assert.NoError(t, err) {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			defer file.Close()
			assert.Equal(t, "photo.jpg", header.Filename)
			data, _ := io.ReadAll(file)
			assert.Equal(t, "jpeg-bytes", string(data))

			w.Write([]byte(`{"id":"media-42"}`))
		case "/v21.0/1234/messages":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
			w.Write([]byte(`{"messages":[{"id":"wamid.LOCAL"}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	id, err := client.SendImageFile(context.Background(), "+15551234567", path, "caption")
	require.NoError(t, err)
	assert.Equal(t, "wamid.LOCAL", id)
	assert.Equal(t, map[string]any{"id": "media-42", "caption": "caption"}, sent["image"])
}

func TestSendImageFileMissingFile(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected, got %s", r.URL.Path)
	}))

	_, err := client.SendImageFile(context.Background(), "+1", filepath.Join(t.TempDir(), "nope.jpg"), "")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBusinessProfile(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v21.0/1234/whatsapp_business_profile", r.URL.Path)
		assert.Contains(t, r.URL.Query().Get("fields"), "about")
		w.Write([]byte(`{"data":[{"about":"Daily photos","email":"bot@example.com","websites":["https://example.com"],"vertical":"OTHER","messaging_product":"whatsapp"}]}`))
	}))

	profile, err := client.BusinessProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Daily photos", profile.About)
	assert.Equal(t, "bot@example.com", profile.Email)
	assert.Equal(t, []string{"https://example.com"}, profile.Websites)
}

func TestBusinessProfileErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":{"message":"bad token","code":190}}`},
		{name: "non json error", status: http.StatusBadGateway, body: `<html>bad gateway</html>`},
		{name: "empty data", status: http.StatusOK, body: `{"data":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))

			_, err := client.BusinessProfile(context.Background())
			assert.Error(t, err)
		})
	}
}
