package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const (
	AvatarFolder = "avatars"

	// 400x400 crop centred on a face, then automatic quality and format
	avatarTransformation = "c_fill,g_face,h_400,w_400/q_auto,f_auto"
)

var publicIDPattern = regexp.MustCompile(`/v\d+/(.+)\.\w+$`)

// Image is a stored image.
type Image struct {
	URL      string
	PublicID string
}

// ImageHost stores avatar images.
type ImageHost interface {
	UploadAvatar(ctx context.Context, file io.Reader) (*Image, error)
	Delete(ctx context.Context, publicID string) error
}

type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, uploadParams uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

type CloudinaryHost struct {
	api uploadAPI
}

func NewCloudinaryHost(cloudName, apiKey, apiSecret string) (*CloudinaryHost, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
	}
	return &CloudinaryHost{api: &cld.Upload}, nil
}

func (h *CloudinaryHost) UploadAvatar(ctx context.Context, file io.Reader) (*Image, error) {
	resp, err := h.api.Upload(ctx, file, uploader.UploadParams{
		Folder:         AvatarFolder,
		Transformation: avatarTransformation,
	})
	if err != nil {
		return nil, fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	if resp.SecureURL == "" {
		return nil, errors.New("cloudinary upload: empty secure url")
	}

	return &Image{URL: resp.SecureURL, PublicID: resp.PublicID}, nil
}

func (h *CloudinaryHost) Delete(ctx context.Context, publicID string) error {
	resp, err := h.api.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	if resp.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy: %s", resp.Error.Message)
	}
	return nil
}

// PublicIDFromURL recovers the public id from a delivery URL such as
// https://res.cloudinary.com/demo/image/upload/v1712/avatars/abc.jpg.
func PublicIDFromURL(url string) (string, bool) {
	m := publicIDPattern.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return m[1], true
}
