// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package s3blob backs the blob façade with a remote S3-compatible object
store via minio-go, the same client library a bucket-shaped object store
would use anywhere in the pack. Unlike memory/filesystem, S3 natively
supports pre-signed URLs, so this is the only backend where Presign does
real work instead of reporting CapabilityNotSupported.
*/
package s3blob

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/meridiandb/dbal/internal/dbal/blob"
	"github.com/meridiandb/dbal/internal/platform/apperr"
)

// Config configures the S3-compatible endpoint this backend talks to.
type Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	PathStyle bool
}

// Backend stores objects in one bucket of a remote S3-compatible store.
type Backend struct {
	client *minio.Client
	bucket string
}

// New builds a [Backend] from cfg, ensuring the configured bucket exists.
func New(ctx context.Context, cfg Config) (*Backend, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, apperr.DatabaseError(err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, apperr.DatabaseError(err)
		}
	}

	return &Backend{client: client, bucket: cfg.Bucket}, nil
}

func (b *Backend) Put(ctx context.Context, key string, body io.Reader, contentType string, overwrite bool, metadata map[string]string) (blob.ObjectMeta, error) {
	if !overwrite {
		if _, err := b.client.StatObject(ctx, b.bucket, key, minio.StatObjectOptions{}); err == nil {
			return blob.ObjectMeta{}, apperr.Conflict("key already exists: " + key)
		}
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return blob.ObjectMeta{}, apperr.Internal(err)
	}

	_, err = b.client.PutObject(ctx, b.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: metadata,
	})
	if err != nil {
		return blob.ObjectMeta{}, apperr.DatabaseError(err)
	}

	return b.Head(ctx, key)
}

func (b *Backend) Get(ctx context.Context, key string) (io.ReadCloser, blob.ObjectMeta, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, blob.ObjectMeta{}, apperr.DatabaseError(err)
	}

	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, blob.ObjectMeta{}, apperr.NotFound("object")
	}

	return obj, toMeta(key, info), nil
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	if err := b.client.RemoveObject(ctx, b.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return apperr.DatabaseError(err)
	}
	return nil
}

func (b *Backend) Head(ctx context.Context, key string) (blob.ObjectMeta, error) {
	info, err := b.client.StatObject(ctx, b.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return blob.ObjectMeta{}, apperr.NotFound("object")
	}
	return toMeta(key, info), nil
}

func (b *Backend) List(ctx context.Context, prefix, continuationToken string, maxKeys int) (blob.ListResult, error) {
	objectsCh := b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{
		Prefix:            prefix,
		StartAfter:        continuationToken,
		Recursive:  true,
		MaxKeys:    maxKeys,
	})

	var result blob.ListResult
	for obj := range objectsCh {
		if obj.Err != nil {
			return blob.ListResult{}, apperr.DatabaseError(obj.Err)
		}
		result.Objects = append(result.Objects, blob.ObjectMeta{
			Key:          obj.Key,
			Size:         obj.Size,
			ContentType:  obj.ContentType,
			ETag:         obj.ETag,
			LastModified: obj.LastModified,
		})
		if len(result.Objects) >= maxKeys {
			result.ContinuationToken = obj.Key
			break
		}
	}
	return result, nil
}

func (b *Backend) Stats(ctx context.Context, prefix string) (blob.Stats, error) {
	objectsCh := b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true})

	var stats blob.Stats
	for obj := range objectsCh {
		if obj.Err != nil {
			return blob.Stats{}, apperr.DatabaseError(obj.Err)
		}
		stats.TotalSize += obj.Size
		stats.ObjectCount++
	}
	return stats, nil
}

func (b *Backend) Presign(ctx context.Context, key string, expires time.Duration) (string, error) {
	u, err := b.client.PresignedGetObject(ctx, b.bucket, key, expires, url.Values{})
	if err != nil {
		return "", apperr.DatabaseError(err)
	}
	return u.String(), nil
}

func (b *Backend) Copy(ctx context.Context, srcKey, destKey string) (blob.ObjectMeta, error) {
	src := minio.CopySrcOptions{Bucket: b.bucket, Object: srcKey}
	dst := minio.CopyDestOptions{Bucket: b.bucket, Object: destKey}

	if _, err := b.client.CopyObject(ctx, dst, src); err != nil {
		return blob.ObjectMeta{}, apperr.DatabaseError(err)
	}
	return b.Head(ctx, destKey)
}

func toMeta(key string, info minio.ObjectInfo) blob.ObjectMeta {
	return blob.ObjectMeta{
		Key:          key,
		Size:         info.Size,
		ContentType:  info.ContentType,
		ETag:         info.ETag,
		LastModified: info.LastModified,
		Metadata:     flattenUserMetadata(info.UserMetadata),
	}
}

func flattenUserMetadata(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	return m
}

