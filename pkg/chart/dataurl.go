package chart

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const pngDataURLPrefix = "data:image/png;base64,"

// DecodeDataURL returns the bytes of a base64 PNG data URL such as the one
// produced by canvas.toDataURL("image/png").
func DecodeDataURL(raw string) ([]byte, error) {
	if !strings.HasPrefix(raw, pngDataURLPrefix) {
		return nil, errors.New("chart image must be a PNG data URL")
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(raw, pngDataURLPrefix))
	if err != nil {
		return nil, fmt.Errorf("decode chart image: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("chart image is empty")
	}
	return data, nil
}
