package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"photobot/config"
	"photobot/models"

	"github.com/hashicorp/go-cleanhttp"
	log "github.com/sirupsen/logrus"
)

const messagingProduct = "whatsapp"

var ErrMissingCredentials = errors.New("missing WhatsApp credentials")

// Client talks to the WhatsApp Cloud API on behalf of one business phone number
type Client struct {
	baseURL       string
	version       string
	token         string
	phoneNumberID string
	http          *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at another Graph API host
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithAPIVersion sets the Graph API version path segment, e.g. "v21.0"
func WithAPIVersion(version string) Option {
	return func(c *Client) { c.version = version }
}

// WithHTTPClient sets the underlying HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.http = client }
}

// ClientFromCredentials creates a client for the given credentials.
// No request is made until the client is used.
func ClientFromCredentials(creds models.Credentials, opts ...Option) (*Client, error) {
	if strings.TrimSpace(creds.Token) == "" || strings.TrimSpace(creds.PhoneNumberID) == "" {
		return nil, ErrMissingCredentials
	}

	c := &Client{
		baseURL:       config.DefaultGraphBaseURL,
		version:       config.DefaultGraphVersion,
		token:         creds.Token,
		phoneNumberID: creds.PhoneNumberID,
		http:          cleanhttp.DefaultClient(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type imageObject struct {
	Link    string `json:"link,omitempty"`
	ID      string `json:"id,omitempty"`
	Caption string `json:"caption,omitempty"`
}

type imageMessage struct {
	MessagingProduct string      `json:"messaging_product"`
	RecipientType    string      `json:"recipient_type"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Image            imageObject `json:"image"`
}

type sendResponse struct {
	Contacts []struct {
		Input string `json:"input"`
		WaID  string `json:"wa_id"`
	} `json:"contacts"`
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type mediaResponse struct {
	ID string `json:"id"`
}

// SendImageURL sends an image the API fetches from imageURL itself.
// It returns the message ID assigned by WhatsApp.
func (c *Client) SendImageURL(ctx context.Context, to, imageURL, caption string) (string, error) {
	return c.sendImage(ctx, to, imageObject{Link: imageURL, Caption: caption})
}

// SendImageFile uploads the JPEG at path as media and sends it.
// It returns the message ID assigned by WhatsApp.
func (c *Client) SendImageFile(ctx context.Context, to, path, caption string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	mediaID, err := c.UploadMedia(ctx, filepath.Base(path), "image/jpeg", f)
	if err != nil {
		return "", err
	}
	return c.sendImage(ctx, to, imageObject{ID: mediaID, Caption: caption})
}

// UploadMedia uploads a file to the phone number's media store and returns
// the media ID usable in messages.
func (c *Client) UploadMedia(ctx context.Context, filename, mimeType string, r io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("messaging_product", messagingProduct); err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}
	if err := mw.WriteField("type", mimeType); err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("failed to read media: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}

	var out mediaResponse
	if err := c.do(ctx, http.MethodPost, c.endpoint("media"), mw.FormDataContentType(), &body, &out); err != nil {
		return "", fmt.Errorf("failed to upload media: %w", err)
	}
	if out.ID == "" {
		return "", errors.New("failed to upload media: response has no media id")
	}

	log.WithFields(log.Fields{
		"media_id": out.ID,
		"filename": filename,
	}).Debug("Uploaded media")
	return out.ID, nil
}

func (c *Client) sendImage(ctx context.Context, to string, image imageObject) (string, error) {
	payload, err := json.Marshal(imageMessage{
		MessagingProduct: messagingProduct,
		RecipientType:    "individual",
		To:               to,
		Type:             "image",
		Image:            image,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode message: %w", err)
	}

	var out sendResponse
	if err := c.do(ctx, http.MethodPost, c.endpoint("messages"), "application/json", bytes.NewReader(payload), &out); err != nil {
		return "", fmt.Errorf("failed to send image: %w", err)
	}
	if len(out.Messages) == 0 || out.Messages[0].ID == "" {
		return "", errors.New("failed to send image: response has no message id")
	}
	return out.Messages[0].ID, nil
}

func (c *Client) endpoint(edge string) string {
	return fmt.Sprintf("%s/%s/%s/%s", c.baseURL, c.version, url.PathEscape(c.phoneNumberID), edge)
}

// do performs an authenticated request and decodes the JSON response into out.
// Graph API error bodies are returned as *APIError.
func (c *Client) do(ctx context.Context, method, endpoint, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
