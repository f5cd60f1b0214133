package web

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vbonduro/glassinv/internal/domain"
)

func TestAllowedImageMIME(t *testing.T) {
	tests := []struct {
		name         string
		data         []byte
		wantMIME     string
		wantDetected bool
	}{
		{name: "JPEG", data: []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}, wantMIME: "image/jpeg", wantDetected: true},
		{name: "PNG", data: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00}, wantMIME: "image/png", wantDetected: true},
		{name: "GIF", data: []byte("GIF89a"), wantMIME: "image/gif", wantDetected: true},
		{name: "WebP", data: append([]byte("RIFF\x00\x00\x00\x00WEBP"), make([]byte, 10)...), wantMIME: "image/webp", wantDetected: true},
		{name: "RIFF but not WebP", data: append([]byte("RIFF\x00\x00\x00\x00WAVE"), make([]byte, 10)...)},
		{name: "PDF disguised as image", data: []byte("%PDF-1.4 malicious content")},
		{name: "plain text", data: []byte("glass rod")},
		{name: "empty", data: []byte{}},
		{name: "too short for WebP check", data: []byte("RIFF")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMIME, gotDetected := allowedImageMIME(tt.data)
			assert.Equal(t, tt.wantDetected, gotDetected)
			assert.Equal(t, tt.wantMIME, gotMIME)
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("image x: %w", domain.ErrImageNotFound), http.StatusNotFound},
		{domain.ErrAlreadyExists, http.StatusConflict},
		{fmt.Errorf("move: %w", domain.ErrInsufficientQuantity), http.StatusConflict},
		{domain.ErrInvalidLocation, http.StatusBadRequest},
		{domain.ErrInvalidQuantity, http.StatusBadRequest},
		{domain.ErrInvalidTag, http.StatusBadRequest},
		{domain.ErrStorageUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
