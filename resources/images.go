package resources

import (
	"context"
	"io"

	"github.com/jrsteele09/vineyard-dashboard/apiclient"
)

const (
	pathUploadImage = "/upload-image"
	imageField      = "image"
)

type UploadedImage struct {
	URL string `json:"url"`
}

type Images struct {
	r Requester
}

// Upload sends one image as multipart field "image" and returns its public URL
func (i *Images) Upload(ctx context.Context, fileName string, content io.Reader) (string, error) {
	img, err := decodeMeta[UploadedImage](i.r.Upload(ctx, pathUploadImage, nil, []apiclient.FormFile{
		{FieldName: imageField, FileName: fileName, Content: content},
	}))
	return img.URL, err
}
