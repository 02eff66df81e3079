// Package sniffer identifies avatar images by their leading bytes.
package sniffer

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
)

type MediaType string

const (
	TypeJPEG MediaType = "jpeg"
	TypePNG  MediaType = "png"
	TypeGIF  MediaType = "gif"
	TypeWEBP MediaType = "webp"
	TypeSVG  MediaType = "svg"
)

// HeadSize is the number of leading bytes DetectHead needs to decide.
const HeadSize = 512

var ErrUnknownType = errors.New("unknown media type")

type Result struct {
	Type MediaType
	MIME string
}

// Extension is the file extension used for stored objects.
func (r Result) Extension() string {
	if r.Type == TypeJPEG {
		return "jpg"
	}
	return string(r.Type)
}

type signature struct {
	result Result
	match  func(head []byte) bool
}

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

var signatures = []signature{
	{Result{TypeJPEG, "image/jpeg"}, func(h []byte) bool {
		return len(h) > 3 && h[0] == 0xff && h[1] == 0xd8 && h[2] == 0xff
	}},
	{Result{TypePNG, "image/png"}, func(h []byte) bool {
		return bytes.HasPrefix(h, pngMagic)
	}},
	{Result{TypeGIF, "image/gif"}, func(h []byte) bool {
		return bytes.HasPrefix(h, []byte("GIF87a")) || bytes.HasPrefix(h, []byte("GIF89a"))
	}},
	{Result{TypeWEBP, "image/webp"}, func(h []byte) bool {
		return len(h) >= 12 && bytes.Equal(h[:4], []byte("RIFF")) && bytes.Equal(h[8:12], []byte("WEBP"))
	}},
	{Result{TypeSVG, "image/svg+xml"}, func(h []byte) bool {
		trimmed := strings.TrimSpace(string(h))
		return strings.HasPrefix(trimmed, "<svg") || strings.HasPrefix(trimmed, "<?xml")
	}},
}

func DetectHead(head []byte) (Result, error) {
	if len(head) == 0 {
		return Result{}, ErrUnknownType
	}
	if len(head) > HeadSize {
		head = head[:HeadSize]
	}
	for _, sig := range signatures {
		if sig.match(head) {
			return sig.result, nil
		}
	}
	return Result{}, ErrUnknownType
}

// MimeTypeFromHTTP returns the declared media type without parameters.
func MimeTypeFromHTTP(header http.Header) string {
	contentType := header.Get("Content-Type")
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	return strings.TrimSpace(contentType)
}
