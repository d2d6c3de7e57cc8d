// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package fsblob stores blob objects as plain files under a configured root
directory, with a JSON sidecar file per object holding the content type and
custom metadata a bare file cannot carry on its own.

Like memoryblob, a local filesystem has no notion of a pre-signed URL, so
Presign reports apperr.CapabilityNotSupported.
*/
package fsblob

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/meridiandb/dbal/internal/dbal/blob"
	"github.com/meridiandb/dbal/internal/platform/apperr"
)

const sidecarSuffix = ".meta.json"

// Backend stores objects as files under root.
type Backend struct {
	root string
}

// New builds a [Backend] rooted at root. The directory is created on first
// use by [Backend.Put], not at construction time.
func New(root string) *Backend {
	return &Backend{root: root}
}

type sidecar struct {
	ContentType string            `json:"contentType"`
	Metadata    map[string]string `json:"metadata"`
}

func (b *Backend) dataPath(key string) string    { return filepath.Join(b.root, filepath.FromSlash(key)) }
func (b *Backend) sidecarPath(key string) string { return b.dataPath(key) + sidecarSuffix }

func (b *Backend) Put(_ context.Context, key string, body io.Reader, contentType string, overwrite bool, metadata map[string]string) (blob.ObjectMeta, error) {
	path := b.dataPath(key)

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return blob.ObjectMeta{}, apperr.Conflict("key already exists: " + key)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return blob.ObjectMeta{}, apperr.Internal(err)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return blob.ObjectMeta{}, apperr.Internal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return blob.ObjectMeta{}, apperr.Internal(err)
	}

	sc := sidecar{ContentType: contentType, Metadata: metadata}
	scBytes, _ := json.Marshal(sc)
	if err := os.WriteFile(b.sidecarPath(key), scBytes, 0o644); err != nil {
		return blob.ObjectMeta{}, apperr.Internal(err)
	}

	return b.Head(context.Background(), key)
}

func (b *Backend) Get(_ context.Context, key string) (io.ReadCloser, blob.ObjectMeta, error) {
	meta, err := b.Head(context.Background(), key)
	if err != nil {
		return nil, blob.ObjectMeta{}, err
	}

	f, err := os.Open(b.dataPath(key))
	if err != nil {
		return nil, blob.ObjectMeta{}, apperr.NotFound("object")
	}
	return f, meta, nil
}

func (b *Backend) Delete(_ context.Context, key string) error {
	if _, err := os.Stat(b.dataPath(key)); err != nil {
		return apperr.NotFound("object")
	}
	_ = os.Remove(b.sidecarPath(key))
	if err := os.Remove(b.dataPath(key)); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (b *Backend) Head(_ context.Context, key string) (blob.ObjectMeta, error) {
	info, err := os.Stat(b.dataPath(key))
	if err != nil {
		return blob.ObjectMeta{}, apperr.NotFound("object")
	}

	sc := loadSidecar(b.sidecarPath(key))
	etag, _ := fileMD5(b.dataPath(key))

	return blob.ObjectMeta{
		Key:          key,
		Size:         info.Size(),
		ContentType:  sc.ContentType,
		ETag:         etag,
		LastModified: info.ModTime(),
		Metadata:     sc.Metadata,
	}, nil
}

func (b *Backend) List(_ context.Context, prefix, continuationToken string, maxKeys int) (blob.ListResult, error) {
	var keys []string
	root := b.root

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || strings.HasSuffix(path, sidecarSuffix) {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	sort.Strings(keys)

	start := 0
	if continuationToken != "" {
		for i, key := range keys {
			if key == continuationToken {
				start = i + 1
				break
			}
		}
	}
	end := start + maxKeys
	if end > len(keys) {
		end = len(keys)
	}
	if start > len(keys) {
		start = len(keys)
	}

	page := keys[start:end]
	result := blob.ListResult{Objects: make([]blob.ObjectMeta, 0, len(page))}
	for _, key := range page {
		meta, err := b.Head(context.Background(), key)
		if err == nil {
			result.Objects = append(result.Objects, meta)
		}
	}
	if end < len(keys) {
		result.ContinuationToken = keys[end-1]
	}

	return result, nil
}

func (b *Backend) Stats(_ context.Context, prefix string) (blob.Stats, error) {
	var stats blob.Stats
	_ = filepath.WalkDir(b.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || strings.HasSuffix(path, sidecarSuffix) {
			return nil
		}
		rel, relErr := filepath.Rel(b.root, path)
		if relErr != nil {
			return nil
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, statErr := d.Info()
		if statErr != nil {
			return nil
		}
		stats.TotalSize += info.Size()
		stats.ObjectCount++
		return nil
	})
	return stats, nil
}

func (b *Backend) Presign(context.Context, string, time.Duration) (string, error) {
	return "", apperr.CapabilityNotSupported("presign")
}

func (b *Backend) Copy(_ context.Context, srcKey, destKey string) (blob.ObjectMeta, error) {
	data, err := os.ReadFile(b.dataPath(srcKey))
	if err != nil {
		return blob.ObjectMeta{}, apperr.NotFound("object")
	}

	destPath := b.dataPath(destKey)
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return blob.ObjectMeta{}, apperr.Internal(err)
	}
	if err := os.WriteFile(destPath, data, 0o644); err != nil {
		return blob.ObjectMeta{}, apperr.Internal(err)
	}

	sc := loadSidecar(b.sidecarPath(srcKey))
	scBytes, _ := json.Marshal(sc)
	if err := os.WriteFile(b.sidecarPath(destKey), scBytes, 0o644); err != nil {
		return blob.ObjectMeta{}, apperr.Internal(err)
	}

	return b.Head(context.Background(), destKey)
}

func loadSidecar(path string) sidecar {
	data, err := os.ReadFile(path)
	if err != nil {
		return sidecar{}
	}
	var sc sidecar
	_ = json.Unmarshal(data, &sc)
	return sc
}

func fileMD5(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:]), nil
}
