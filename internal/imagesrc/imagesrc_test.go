package imagesrc

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader is enough of a PNG for MIME sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want string
	}{
		{
			name: "path is used as typed",
			in:   Input{Path: "https://example.com/dosa.jpg", Name: "Dosa"},
			want: "https://example.com/dosa.jpg",
		},
		{
			name: "path is trimmed",
			in:   Input{Path: "  images/dosa.jpg ", Name: "Dosa"},
			want: "images/dosa.jpg",
		},
		{
			name: "placeholder when nothing given",
			in:   Input{Name: "Masala Dosa"},
			want: "images/masaladosa.jpg",
		},
		{
			name: "blank path falls back to placeholder",
			in:   Input{Path: "   ", Name: "Tea"},
			want: "images/tea.jpg",
		},
	}

	r := New(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(context.Background(), tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_FileWinsOverPath(t *testing.T) {
	r := New(0)
	got, err := r.Resolve(context.Background(), Input{
		File: bytes.NewReader(pngHeader),
		Path: "images/ignored.jpg",
		Name: "Dosa",
	})
	require.NoError(t, err)

	prefix := "data:image/png;base64,"
	require.True(t, strings.HasPrefix(got, prefix), got)
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(got, prefix))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, raw)
}

func TestResolve_FileErrors(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		max  int64
		file io.Reader
	}{
		{name: "read failure", ctx: context.Background(), file: failingReader{}},
		{name: "too large", ctx: context.Background(), max: 4, file: bytes.NewReader(pngHeader)},
		{name: "empty file", ctx: context.Background(), file: bytes.NewReader(nil)},
		{name: "canceled", ctx: canceled, file: bytes.NewReader(pngHeader)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.max).Resolve(tt.ctx, Input{File: tt.file, Name: "Dosa"})
			require.ErrorIs(t, err, ErrImageRead)
		})
	}
}
