package services

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"foodlog/utils"
)

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// PhotoArchive keeps a copy of analyzed photos in S3.
type PhotoArchive struct {
	client objectPutter
	bucket string
	prefix string
	newID  func() string
}

func NewPhotoArchive(ctx context.Context, region, bucket, prefix string) (*PhotoArchive, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config for S3: %w", err)
	}
	return &PhotoArchive{client: s3.NewFromConfig(cfg), bucket: bucket, prefix: prefix, newID: uuid.NewString}, nil
}

// Store uploads the photo and returns its object key.
func (a *PhotoArchive) Store(ctx context.Context, sessionID string, data []byte) (string, error) {
	ct, _ := utils.SniffImageType(data)
	key := path.Join(a.prefix, sessionID, a.newID()+utils.ExtensionFor(ct))

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(ct),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return key, nil
}
