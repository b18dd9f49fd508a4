// Package qr renders pairing payloads as scannable images. It is stateless:
// the image is a pure function of the pairing URL.
package qr

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const imageSize = 256

// PairingURL builds the URL a mobile device reaches after scanning the code.
// It embeds the raw token and the API base address so the client does not
// need to hardcode the server location.
func PairingURL(baseURL, token string) string {
	base := strings.TrimSuffix(baseURL, "/")
	return fmt.Sprintf("%s/mobile/pair?token=%s", base, url.QueryEscape(token))
}

// EncodeDataURI renders content as a QR code PNG and returns it as a data
// URI suitable for direct embedding in an <img> tag.
func EncodeDataURI(content string) (string, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, imageSize)
	if err != nil {
		return "", fmt.Errorf("encode qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
