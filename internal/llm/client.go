package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
)

// ErrUnusable marks a completion that arrived but could not be used: empty text,
// or JSON that does not satisfy the requested schema.
var ErrUnusable = errors.New("llm: unusable response")

// Client is the completion surface the deck pipeline depends on.
type Client interface {
	// StructuredComplete asks for a JSON object matching s and decodes it into out.
	StructuredComplete(ctx context.Context, p Prompt, s *Schema, out any) error
	// FreeTextComplete asks for raw prose. An empty answer is ErrUnusable.
	FreeTextComplete(ctx context.Context, p Prompt) (string, error)
}

// Prompt is a single user turn: instruction text plus optional images.
type Prompt struct {
	Text   string
	Images []Image
}

// Image is an uploaded slide image.
type Image struct {
	Name     string
	MIMEType string
	Data     []byte
}

// NewImage builds an Image, sniffing the content type when mimeType is empty.
func NewImage(name string, data []byte, mimeType string) Image {
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}
	return Image{Name: name, MIMEType: mimeType, Data: data}
}

// DataURL renders the image as a base64 data URL for chat APIs that take image_url parts.
func (img Image) DataURL() string {
	mt := img.MIMEType
	if mt == "" {
		mt = "image/jpeg"
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// IsUnusable reports whether err means the model answered with unusable content.
func IsUnusable(err error) bool {
	return errors.Is(err, ErrUnusable)
}
