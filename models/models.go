package models

// Photo is a single entry of the remote photo feed
type Photo struct {
	URL    string `json:"url"`
	Author string `json:"author,omitempty"`
}

// DisplayAuthor returns the author or "Unknown" when the feed entry has none
func (p Photo) DisplayAuthor() string {
	if p.Author == "" {
		return "Unknown"
	}
	return p.Author
}

// Feed is the ordered list of photos fetched once per run
type Feed []Photo

// Credentials used to talk to the messaging API
type Credentials struct {
	Token         string
	PhoneNumberID string
}

// DeliveryMethod tells how a photo reached the messaging API
type DeliveryMethod string

const (
	// Sent by handing the API the remote image URL
	DeliveryMethodURL DeliveryMethod = "url"
	// Sent after downloading the image and uploading it from disk
	DeliveryMethodLocal DeliveryMethod = "local"
)

// Delivery is the outcome of a successful send
type Delivery struct {
	MessageID string
	Method    DeliveryMethod
}
