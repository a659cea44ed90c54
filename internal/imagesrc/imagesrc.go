// Package imagesrc decides which image string a menu item gets: an uploaded
// file as a data URI, a path typed by the operator, or a placeholder.
package imagesrc

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-faster/errors"

	"github.com/xenking/oolio-pos/internal/domain/menu"
)

// DefaultMaxSize bounds uploaded images when no limit is configured.
const DefaultMaxSize = 5 << 20

// ErrImageRead is returned when an uploaded file cannot be read.
var ErrImageRead = errors.New("image read failed")

// Input is what the operator supplied on the item form.
type Input struct {
	// File is the uploaded image, nil when none was chosen.
	File io.Reader
	// Path is the image path or URL typed into the form.
	Path string
	// Name is the item name, used for the placeholder.
	Name string
}

// Resolver turns form input into an image string.
type Resolver struct {
	maxSize int64
}

// New creates a Resolver. A non-positive maxSize selects DefaultMaxSize.
func New(maxSize int64) *Resolver {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Resolver{maxSize: maxSize}
}

// Resolve returns the image string for in. An uploaded file takes precedence
// over the path; with neither, the placeholder derived from the name is used.
func (r *Resolver) Resolve(ctx context.Context, in Input) (string, error) {
	if in.File != nil {
		return r.dataURI(ctx, in.File)
	}
	if p := strings.TrimSpace(in.Path); p != "" {
		return p, nil
	}
	return menu.PlaceholderImage(in.Name), nil
}

func (r *Resolver) dataURI(ctx context.Context, f io.Reader) (string, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(ctxReader{ctx: ctx, r: f}, r.maxSize+1))
	if err != nil {
		return "", errors.Wrap(ErrImageRead, err.Error())
	}
	if n > r.maxSize {
		return "", errors.Wrapf(ErrImageRead, "image exceeds %d bytes", r.maxSize)
	}
	if n == 0 {
		return "", errors.Wrap(ErrImageRead, "empty file")
	}

	data := buf.Bytes()
	mime := mimetype.Detect(data)

	var sb strings.Builder
	sb.Grow(len("data:;base64,") + len(mime.String()) + base64.StdEncoding.EncodedLen(len(data)))
	sb.WriteString("data:")
	sb.WriteString(mime.String())
	sb.WriteString(";base64,")
	sb.WriteString(base64.StdEncoding.EncodeToString(data))
	return sb.String(), nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
