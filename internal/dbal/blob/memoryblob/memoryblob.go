// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package memoryblob is the default blob backend: an in-process map, lost on
restart. Like fsblob, it has no meaningful notion of a pre-signed URL, so
Presign reports apperr.CapabilityNotSupported rather than fabricate one.
*/
package memoryblob

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/meridiandb/dbal/internal/dbal/blob"
	"github.com/meridiandb/dbal/internal/platform/apperr"
)

type object struct {
	data        []byte
	contentType string
	metadata    map[string]string
	etag        string
	lastMod     time.Time
}

// Backend is an in-process, mutex-guarded object store.
type Backend struct {
	mu      sync.RWMutex
	objects map[string]object
}

// New builds an empty [Backend].
func New() *Backend {
	return &Backend{objects: make(map[string]object)}
}

func (b *Backend) Put(_ context.Context, key string, body io.Reader, contentType string, overwrite bool, metadata map[string]string) (blob.ObjectMeta, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return blob.ObjectMeta{}, apperr.Internal(err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[key]; exists && !overwrite {
		return blob.ObjectMeta{}, apperr.Conflict("key already exists: " + key)
	}

	sum := md5.Sum(data)
	obj := object{
		data:        data,
		contentType: contentType,
		metadata:    metadata,
		etag:        hex.EncodeToString(sum[:]),
		lastMod:     time.Now(),
	}
	b.objects[key] = obj

	return toMeta(key, obj), nil
}

func (b *Backend) Get(_ context.Context, key string) (io.ReadCloser, blob.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, ok := b.objects[key]
	if !ok {
		return nil, blob.ObjectMeta{}, apperr.NotFound("object")
	}
	return io.NopCloser(bytes.NewReader(obj.data)), toMeta(key, obj), nil
}

func (b *Backend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.objects[key]; !ok {
		return apperr.NotFound("object")
	}
	delete(b.objects, key)
	return nil
}

func (b *Backend) Head(_ context.Context, key string) (blob.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, ok := b.objects[key]
	if !ok {
		return blob.ObjectMeta{}, apperr.NotFound("object")
	}
	return toMeta(key, obj), nil
}

func (b *Backend) List(_ context.Context, prefix, continuationToken string, maxKeys int) (blob.ListResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var keys []string
	for key := range b.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
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
		result.Objects = append(result.Objects, toMeta(key, b.objects[key]))
	}
	if end < len(keys) {
		result.ContinuationToken = keys[end-1]
	}

	return result, nil
}

func (b *Backend) Stats(_ context.Context, prefix string) (blob.Stats, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var stats blob.Stats
	for key, obj := range b.objects {
		if strings.HasPrefix(key, prefix) {
			stats.TotalSize += int64(len(obj.data))
			stats.ObjectCount++
		}
	}
	return stats, nil
}

func (b *Backend) Presign(context.Context, string, time.Duration) (string, error) {
	return "", apperr.CapabilityNotSupported("presign")
}

func (b *Backend) Copy(_ context.Context, srcKey, destKey string) (blob.ObjectMeta, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	src, ok := b.objects[srcKey]
	if !ok {
		return blob.ObjectMeta{}, apperr.NotFound("object")
	}

	copied := object{
		data:        append([]byte(nil), src.data...),
		contentType: src.contentType,
		metadata:    src.metadata,
		etag:        src.etag,
		lastMod:     time.Now(),
	}
	b.objects[destKey] = copied

	return toMeta(destKey, copied), nil
}

func toMeta(key string, obj object) blob.ObjectMeta {
	return blob.ObjectMeta{
		Key:          key,
		Size:         int64(len(obj.data)),
		ContentType:  obj.contentType,
		ETag:         obj.etag,
		LastModified: obj.lastMod,
		Metadata:     obj.metadata,
	}
}
