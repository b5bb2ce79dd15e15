package domain

import (
	"regexp"
	"strings"
)

// colorPattern accepts exactly six hex digits, no leading '#'
var colorPattern = regexp.MustCompile(`^[0-9a-fA-F]{6}$`)

// Theme holds a tenant's stored presentation settings. Rendering is outside
// the engine; the engine only validates and persists the data.
type Theme struct {
	Logo            string `json:"logo,omitempty"`
	Background      string `json:"background,omitempty"`
	PrimaryColor    string `json:"primary_color,omitempty"`
	SecondaryColor  string `json:"secondary_color,omitempty"`
	BackgroundColor string `json:"background_color,omitempty"`
	Font            string `json:"font,omitempty"`
	DarkMode        bool   `json:"dark_mode"`
}

// Validate checks image URLs and colors. Empty fields are left unset.
func (t *Theme) Validate() error {
	for _, image := range []string{t.Logo, t.Background} {
		if image == "" {
			continue
		}
		if !strings.Contains(image, ARWEAVE_URL_PREFIX) {
			return ErrInvalidImage
		}
		if len(image) > MAX_IMAGE_LENGTH {
			return ErrImageTooLong
		}
	}

	for _, color := range []string{t.PrimaryColor, t.SecondaryColor, t.BackgroundColor} {
		if color == "" {
			continue
		}
		if !colorPattern.MatchString(color) {
			return ErrInvalidColor
		}
	}

	return nil
}
