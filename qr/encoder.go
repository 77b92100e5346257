// Package qr renders URLs as QR code PNG images.
package qr

import (
	"encoding/base64"
	"errors"
	"fmt"
	"image"

	"Gin_postgres_redis_tickets/apperr"

	"github.com/skip2/go-qrcode"
)

var ErrEncode = errors.New("qr: cannot encode data")

const DefaultSize = 256

type Encoder struct {
	Size  int
	Level qrcode.RecoveryLevel
}

func NewEncoder(size int) Encoder {
	if size <= 0 {
		size = DefaultSize
	}
	return Encoder{Size: size, Level: qrcode.Medium}
}

func (e Encoder) code(data string) (*qrcode.QRCode, error) {
	if data == "" {
		return nil, apperr.Wrap(apperr.InputValidation, "qr code data is empty", ErrEncode)
	}
	q, err := qrcode.New(data, e.Level)
	if err != nil {
		// 通常是内容太长
		return nil, apperr.Wrap(apperr.InputValidation, "qr code data cannot be encoded",
			fmt.Errorf("%w: %w", ErrEncode, err))
	}
	return q, nil
}

// Encode returns the PNG bytes of a square QR raster for url.
func (e Encoder) Encode(url string) ([]byte, error) {
	q, err := e.code(url)
	if err != nil {
		return nil, err
	}
	png, err := q.PNG(e.Size)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "qr png", err)
	}
	return png, nil
}

// EncodeBase64 is Encode with standard base64 applied.
func (e Encoder) EncodeBase64(url string) (string, error) {
	png, err := e.Encode(url)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}

func (e Encoder) Image(url string) (image.Image, error) {
	q, err := e.code(url)
	if err != nil {
		return nil, err
	}
	return q.Image(e.Size), nil
}
