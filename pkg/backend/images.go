package backend

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"github.com/matzehuels/flowboard/pkg/errors"
)

// Image is a stored image asset.
type Image struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// maxUpload caps the bytes read from an upload source.
const maxUpload = 32 << 20

// UploadImage stores the contents of r under filename. A non-empty prevID
// asks the backend to drop the image it replaces.
func (c *Client) UploadImage(ctx context.Context, filename string, r io.Reader, prevID string) (Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxUpload+1))
	if err != nil {
		return Image{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", filename)
	}
	if len(data) > maxUpload {
		return Image{}, errors.New(errors.ErrCodeInvalidInput, "%s exceeds %d bytes", filename, maxUpload)
	}
	if filename == "" {
		filename = "upload.bin"
	}

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	fw, err := mw.CreateFormFile("file", path.Base(filename))
	if err != nil {
		return Image{}, errors.Wrap(errors.ErrCodeInternal, err, "build upload")
	}
	if _, err := fw.Write(data); err != nil {
		return Image{}, errors.Wrap(errors.ErrCodeInternal, err, "build upload")
	}
	if prevID != "" {
		if err := mw.WriteField("prevId", prevID); err != nil {
			return Image{}, errors.Wrap(errors.ErrCodeInternal, err, "build upload")
		}
	}
	if err := mw.Close(); err != nil {
		return Image{}, errors.Wrap(errors.ErrCodeInternal, err, "build upload")
	}
	encoded := form.Bytes()

	rc, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/api/images",
		contentType: mw.FormDataContentType(),
		body:        func() (io.Reader, error) { return bytes.NewReader(encoded), nil },
	})
	if err != nil {
		return Image{}, err
	}
	return decodeImage(rc)
}

// UploadImageURL asks the backend to fetch and store the image at src.
func (c *Client) UploadImageURL(ctx context.Context, src, prevID string) (Image, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return Image{}, errors.New(errors.ErrCodeInvalidInput, "url is required")
	}
	body, err := jsonBody(struct {
		URL    string `json:"url"`
		PrevID string `json:"prevId,omitempty"`
	}{src, prevID})
	if err != nil {
		return Image{}, err
	}
	rc, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/api/images/url",
		contentType: "application/json",
		body:        body,
	})
	if err != nil {
		return Image{}, err
	}
	return decodeImage(rc)
}

// DeleteImage removes a stored image.
func (c *Client) DeleteImage(ctx context.Context, id string) error {
	if err := errors.ValidateAssetID(id); err != nil {
		return err
	}
	rc, err := c.do(ctx, request{method: http.MethodDelete, path: "/api/images/" + id})
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, rc)
	return rc.Close()
}

func decodeImage(rc io.ReadCloser) (Image, error) {
	var img Image
	if err := decode(rc, &img); err != nil {
		return Image{}, err
	}
	if img.URL == "" {
		return Image{}, errors.New(errors.ErrCodeBackend, "backend returned no image url")
	}
	return img, nil
}
