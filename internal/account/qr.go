package account

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/skip2/go-qrcode"
)

const qrSize = 256

// QRCache renders deposit addresses as PNG QR codes and keeps them on disk as
// <user>-<platform>.png, so each user's code is generated once.
type QRCache struct {
	Dir string
}

func (q QRCache) path(userID, platform string) string {
	return filepath.Join(q.Dir, fmt.Sprintf("%s-%s.png", filepath.Base(userID), filepath.Base(platform)))
}

// PNG returns the QR code of address for the user, generating and storing it on a miss.
func (q QRCache) PNG(userID, platform, address string) ([]byte, error) {
	p := q.path(userID, platform)

	data, err := os.ReadFile(p)
	switch {
	case err == nil:
		return data, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("failed to read cached qr code: %w", err)
	}

	data, err = qrcode.Encode(address, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}

	if err := os.MkdirAll(q.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create qr directory: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to store qr code: %w", err)
	}
	return data, nil
}
