// AngelaMos | 2026
// image.go

package storage

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/carterperez-dev/bloghub/internal/core"
)

var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type Image struct {
	Data        []byte
	ContentType string
}

func (i *Image) Extension() string {
	return imageExtensions[i.ContentType]
}

// DecodeDataURL accepts either a data URL ("data:image/png;base64,...")
// or bare base64 and sniffs the real content type from the bytes.
func DecodeDataURL(raw string, maxBytes int64) (*Image, error) {
	payload := strings.TrimSpace(raw)
	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 || !strings.Contains(payload[:comma], ";base64") {
			return nil, fmt.Errorf("image: %w", core.Invalid("malformed data url"))
		}
		payload = payload[comma+1:]
	}

	if payload == "" {
		return nil, fmt.Errorf("image: %w", core.Invalid("image data is empty"))
	}

	if maxBytes > 0 && int64(base64.StdEncoding.DecodedLen(len(payload))) > maxBytes+2 {
		return nil, fmt.Errorf("image: %w", core.Invalid("image exceeds %d bytes", maxBytes))
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("image: %w", core.Invalid("image data is not valid base64"))
	}

	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("image: %w", core.Invalid("image exceeds %d bytes", maxBytes))
	}

	contentType := http.DetectContentType(data)
	if _, ok := imageExtensions[contentType]; !ok {
		return nil, fmt.Errorf("image: %w", core.Invalid("unsupported image type %s", contentType))
	}

	return &Image{Data: data, ContentType: contentType}, nil
}
