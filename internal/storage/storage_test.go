package storage_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cuetube/cuetube/internal/storage"
)

func newTestStorage(t *testing.T) *storage.Storage {
	t.Helper()
	s, err := storage.New(context.Background(), storage.Config{
		Endpoint:  "http://localhost:9000",
		Bucket:    "cuetube-exports",
		AccessKey: "test",
		SecretKey: "test",
	})
	if err != nil {
		t.Fatalf("expected no error creating storage client, got: %v", err)
	}
	return s
}

func TestNew_ClientConstructsWithoutNetwork(t *testing.T) {
	newTestStorage(t)
}

func TestGenerateDownloadURL_SignsAgainstConfiguredEndpoint(t *testing.T) {
	s := newTestStorage(t)

	url, err := s.GenerateDownloadURL(context.Background(), "exports/djtest/library.json", time.Hour)
	if err != nil {
		t.Fatalf("presigning needs no network, got: %v", err)
	}
	if !strings.Contains(url, "localhost:9000") {
		t.Errorf("presigned URL not against configured endpoint: %s", url)
	}
	if !strings.Contains(url, "cuetube-exports/exports/djtest/library.json") {
		t.Errorf("presigned URL missing path-style bucket/key: %s", url)
	}
}
