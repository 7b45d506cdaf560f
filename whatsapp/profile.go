package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

var profileFields = []string{
	"about",
	"address",
	"description",
	"email",
	"profile_picture_url",
	"websites",
	"vertical",
}

// BusinessProfile is the public profile of the business phone number
type BusinessProfile struct {
	About             string   `json:"about"`
	Address           string   `json:"address"`
	Description       string   `json:"description"`
	Email             string   `json:"email"`
	ProfilePictureURL string   `json:"profile_picture_url"`
	Websites          []string `json:"websites"`
	Vertical          string   `json:"vertical"`
	MessagingProduct  string   `json:"messaging_product"`
}

// BusinessProfile fetches the business profile. It is a cheap way to check
// that the token and phone number ID are accepted.
func (c *Client) BusinessProfile(ctx context.Context) (*BusinessProfile, error) {
	q := url.Values{}
	q.Set("fields", strings.Join(profileFields, ","))
	endpoint := c.endpoint("whatsapp_business_profile") + "?" + q.Encode()

	var out struct {
		Data []BusinessProfile `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, endpoint, "", nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get business profile: %w", err)
	}
	if len(out.Data) == 0 {
		return nil, errors.New("failed to get business profile: empty response")
	}
	return &out.Data[0], nil
}
