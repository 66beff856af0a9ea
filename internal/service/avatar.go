package service

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"bizzy/internal/models"

	xdraw "golang.org/x/image/draw"
)

const (
	MaxAvatarBytes = 5 * 1024 * 1024
	MaxAvatarEdge  = 512
	AvatarQuality  = 82

	// Decode bounds, checked against the header before pixels are allocated.
	MaxAvatarSourceEdge   = 8192
	MaxAvatarSourcePixels = 40_000_000
)

var (
	ErrAvatarData   = models.NewValidationError("Invalid image data")
	ErrAvatarFormat = models.NewValidationError("Invalid image format. Only JPEG and PNG are allowed.")
	ErrAvatarSize   = models.NewValidationError("Image too large. Maximum size is 5MB")
)

var avatarPrefixes = []string{"data:image/jpeg", "data:image/jpg", "data:image/png"}

// AvatarPayloadSize estimates the decoded size of a base64 data URL from
// the text after the first comma.
func AvatarPayloadSize(dataURL string) int {
	payload := dataURL
	if i := strings.IndexByte(dataURL, ','); i >= 0 {
		payload = dataURL[i+1:]
	}
	padding := 0
	switch {
	case strings.HasSuffix(payload, "=="):
		padding = 2
	case strings.HasSuffix(payload, "="):
		padding = 1
	}
	return len(payload)*3/4 - padding
}

// NormalizeAvatar checks a data URL avatar and downscales it so its long
// edge is at most MaxAvatarEdge. Images already small enough are returned
// unchanged.
func NormalizeAvatar(dataURL string) (string, error) {
	if dataURL == "" {
		return "", ErrAvatarData
	}
	if !hasAvatarPrefix(dataURL) {
		return "", ErrAvatarFormat
	}
	if AvatarPayloadSize(dataURL) > MaxAvatarBytes {
		return "", ErrAvatarSize
	}

	comma := strings.IndexByte(dataURL, ',')
	if comma < 0 {
		return "", ErrAvatarData
	}
	raw, err := base64.StdEncoding.DecodeString(dataURL[comma+1:])
	if err != nil {
		return "", ErrAvatarData
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return "", ErrAvatarData
	}
	if cfg.Width > MaxAvatarSourceEdge || cfg.Height > MaxAvatarSourceEdge ||
		cfg.Width*cfg.Height > MaxAvatarSourcePixels {
		return "", ErrAvatarData
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return "", ErrAvatarData
	}
	if b := img.Bounds(); b.Dx() <= MaxAvatarEdge && b.Dy() <= MaxAvatarEdge {
		return dataURL, nil
	}

	resized := resizeToFit(img, MaxAvatarEdge, MaxAvatarEdge)
	buf := bytes.NewBuffer(nil)
	mime := "image/jpeg"
	if format == "png" {
		mime = "image/png"
		err = png.Encode(buf, resized)
	} else {
		err = jpeg.Encode(buf, resized, &jpeg.Options{Quality: AvatarQuality})
	}
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func hasAvatarPrefix(s string) bool {
	for _, p := range avatarPrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}
