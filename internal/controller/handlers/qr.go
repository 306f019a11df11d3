package handlers

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

// Размер картинки с кодом в пикселях
const qrImageSize = 512

// RenderTokenQR рисует содержимое кода как PNG с QR-кодом
func RenderTokenQR(payload string) ([]byte, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, qrImageSize)
	if err != nil {
		return nil, fmt.Errorf("render qr: %w", err)
	}
	return png, nil
}
