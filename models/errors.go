package models

import (
	"errors"
	"fmt"
)

var (
	ErrAttemptsExhausted = errors.New("delivery attempts exhausted")
	ErrNoCandidates      = errors.New("no untried photos left")
	ErrMissingURL        = errors.New("photo has no url")
)

// ConfigError is returned when a required setting is missing or invalid.
// It is raised before any network activity takes place.
type ConfigError struct {
	Setting string
	EnvVar  string
	Reason  string
}

func (e *ConfigError) Error() string {
	if e.EnvVar != "" {
		return fmt.Sprintf("%s not configured (set --%s or %s)", e.EnvVar, e.Setting, e.EnvVar)
	}
	if e.Reason != "" {
		return fmt.Sprintf("invalid %s: %s", e.Setting, e.Reason)
	}
	return fmt.Sprintf("%s not configured", e.Setting)
}

// FetchError means the photo feed could not be retrieved or parsed
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// DownloadError means the fallback image download or decode failed
type DownloadError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// DeliveryStage names the step of a delivery that failed
type DeliveryStage string

const (
	StageURL      DeliveryStage = "url"
	StageDownload DeliveryStage = "download"
	StageLocal    DeliveryStage = "local"
)

// DeliveryError is a failed attempt to send one photo
type DeliveryError struct {
	PhotoURL string
	Stage    DeliveryStage
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver %s (%s): %v", e.PhotoURL, e.Stage, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
