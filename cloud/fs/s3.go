// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package fs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3Filesystem stores files as objects under a key prefix of one bucket.
type S3Filesystem struct {
	svc          s3iface.S3API
	bucket       string
	prefix       string
	secondsCache int
}

func NewS3Filesystem(session *session.Session, bucket, prefix string) *S3Filesystem {
	return newS3Filesystem(s3.New(session), bucket, prefix)
}

func newS3Filesystem(svc s3iface.S3API, bucket, prefix string) *S3Filesystem {
	return &S3Filesystem{
		svc:          svc,
		bucket:       bucket,
		prefix:       strings.Trim(prefix, "/"),
		secondsCache: 3600,
	}
}

var s3ContentTypes = map[string]string{
	".json": "application/json",
	".ocf":  "application/octet-stream",
	".tiff": "image/tiff",
}

func (s3Filesystem *S3Filesystem) key(name string) string {
	if s3Filesystem.prefix == "" {
		return name
	}
	return path.Join(s3Filesystem.prefix, name)
}

func (s3Filesystem *S3Filesystem) WriteFile(name string, data []byte) error {
	// Patch S3's limited vocabulary of default content types
	var contentType *string
	if mime, ok := s3ContentTypes[path.Ext(name)]; ok {
		contentType = aws.String(mime)
	}

	req, _ := s3Filesystem.svc.PutObjectRequest(&s3.PutObjectInput{
		Bucket:       aws.String(s3Filesystem.bucket),
		Key:          aws.String(s3Filesystem.key(name)),
		Body:         bytes.NewReader(data),
		CacheControl: aws.String(fmt.Sprintf("no-transform, public, max-age=%d", s3Filesystem.secondsCache)),
		ContentType:  contentType,
	})
	if err := req.Send(); err != nil {
		return fmt.Errorf("uploading %s: %w", name, err)
	}
	return nil
}

func (s3Filesystem *S3Filesystem) ReadFile(name string) ([]byte, error) {
	out, err := s3Filesystem.svc.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(s3Filesystem.bucket),
		Key:    aws.String(s3Filesystem.key(name)),
	})
	if err != nil {
		var awsErr awserr.Error
		if errors.As(err, &awsErr) && awsErr.Code() == s3.ErrCodeNoSuchKey {
			return nil, fmt.Errorf("downloading %s: %w", name, os.ErrNotExist)
		}
		return nil, fmt.Errorf("downloading %s: %w", name, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", name, err)
	}
	return data, nil
}

func (s3Filesystem *S3Filesystem) String() string {
	return "s3://" + path.Join(s3Filesystem.bucket, s3Filesystem.prefix)
}
