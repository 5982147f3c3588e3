package apiclient

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/RoyceAzure/lab/empanada/internal/domain/model"
	"github.com/RoyceAzure/lab/empanada/internal/pkg/errs"
)

// UploadImage multipart 上傳，欄位名稱 file，回傳圖片網址
func (c *Client) UploadImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	const op = "apiclient.UploadImage"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", errs.Wrap(op, errs.KindValidation, err, "")
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", errs.Wrap(op, errs.KindValidation, err, "")
	}
	if err := mw.Close(); err != nil {
		return "", errs.Wrap(op, errs.KindValidation, err, "")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/upload"), &buf)
	if err != nil {
		return "", errs.Wrap(op, errs.KindValidation, err, "")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var res model.UploadResponse
	if err := c.do(req, op, &res); err != nil {
		return "", err
	}
	return res.URL, nil
}
