package bot

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/pquerna/otp"
)

const qrSize = 256

// renderQR encodes an otpauth URI as a PNG QR code.
func renderQR(uri string, size int) ([]byte, error) {
	key, err := otp.NewKeyFromURL(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to parse provisioning uri: %w", err)
	}

	img, err := key.Image(size, size)
	if err != nil {
		return nil, fmt.Errorf("failed to render qr code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return buf.Bytes(), nil
}
