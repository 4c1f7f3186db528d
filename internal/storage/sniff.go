package storage

import (
	"bytes"
	"errors"
)

var ErrUnsupportedImage = errors.New("unsupported image type")

// detectImage identifies the payload by magic bytes. Only raster formats the
// media host can serve as profile imagery are accepted.
func detectImage(data []byte) (ext string, mime string, err error) {
	switch {
	case isJPEG(data):
		return "jpg", "image/jpeg", nil
	case isPNG(data):
		return "png", "image/png", nil
	case isGIF(data):
		return "gif", "image/gif", nil
	case isWEBP(data):
		return "webp", "image/webp", nil
	}
	return "", "", ErrUnsupportedImage
}

func isJPEG(head []byte) bool {
	return len(head) > 3 &&
		head[0] == 0xff &&
		head[1] == 0xd8 &&
		head[2] == 0xff
}

func isPNG(head []byte) bool {
	pngMagic := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	return len(head) >= len(pngMagic) && bytes.Equal(head[:len(pngMagic)], pngMagic)
}

func isGIF(head []byte) bool {
	return len(head) >= 6 && (bytes.Equal(head[:6], []byte("GIF87a")) || bytes.Equal(head[:6], []byte("GIF89a")))
}

func isWEBP(head []byte) bool {
	return len(head) >= 12 &&
		bytes.Equal(head[:4], []byte("RIFF")) &&
		bytes.Equal(head[8:12], []byte("WEBP"))
}
