package qrcode

import (
	"bytes"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/pkg/errors"
)

// DefaultSize is the edge length in pixels of rendered QR codes.
const DefaultSize = 256

// PNG renders content as a size x size QR code PNG.
func PNG(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return nil, errors.Wrap(err, "could not encode qr code")
	}
	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return nil, errors.Wrap(err, "could not scale qr code")
	}
	var buf bytes.Buffer
	if err = png.Encode(&buf, scaled); err != nil {
		return nil, errors.Wrap(err, "could not render qr code png")
	}
	return buf.Bytes(), nil
}
