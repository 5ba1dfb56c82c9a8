package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/avoronov/netsuite-assistant/internal/core/domain"
)

type objectStorageFake struct {
	saved   map[string]string
	saveErr error
	removed []string
}

func (f *objectStorageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if f.saved == nil {
		f.saved = make(map[string]string)
	}
	raw, _ := io.ReadAll(data)
	f.saved[key] = string(raw)
	return nil
}

func (f *objectStorageFake) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

func (f *objectStorageFake) Remove(_ context.Context, key string) error {
	f.removed = append(f.removed, key)
	return nil
}

type queueFake struct {
	ingested   []int64
	publishErr error
	crawls     int
}

func (f *queueFake) PublishDocumentIngested(_ context.Context, documentID int64) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.ingested = append(f.ingested, documentID)
	return nil
}

func (f *queueFake) PublishCrawlRequested(context.Context) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.crawls++
	return nil
}

func (f *queueFake) SubscribeDocumentIngested(context.Context, func(context.Context, int64) error) error {
	return nil
}

func (f *queueFake) SubscribeCrawlRequested(context.Context, func(context.Context) error) error {
	return nil
}

func TestUploadStoresCreatesAndPublishes(t *testing.T) {
	store := &docStoreFake{}
	storage := &objectStorageFake{}
	queue := &queueFake{}
	uc := NewIngestDocumentUseCase(store, storage, queue)

	doc, err := uc.Upload(context.Background(), 7, "user guide.pdf", strings.NewReader("pdf bytes"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if doc.Status != domain.StatusUploaded || doc.UserID != 7 {
		t.Errorf("document = %+v", doc)
	}
	if !strings.HasPrefix(doc.StoragePath, "7/") || !strings.HasSuffix(doc.StoragePath, "_user_guide.pdf") {
		t.Errorf("storage path = %q", doc.StoragePath)
	}
	if _, ok := storage.saved[doc.StoragePath]; !ok {
		t.Error("file not saved to storage")
	}
	if len(queue.ingested) != 1 || queue.ingested[0] != doc.ID {
		t.Errorf("ingestion event = %v, want [%d]", queue.ingested, doc.ID)
	}
}

func TestUploadEmptyFilenameRejected(t *testing.T) {
	uc := NewIngestDocumentUseCase(&docStoreFake{}, &objectStorageFake{}, &queueFake{})

	_, err := uc.Upload(context.Background(), 7, "  ", strings.NewReader("x"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUploadStorageFailureStopsPipeline(t *testing.T) {
	store := &docStoreFake{}
	queue := &queueFake{}
	uc := NewIngestDocumentUseCase(store, &objectStorageFake{saveErr: errors.New("disk full")}, queue)

	_, err := uc.Upload(context.Background(), 7, "guide.pdf", strings.NewReader("x"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(store.created) != 0 || len(queue.ingested) != 0 {
		t.Error("nothing should be created or published after a storage failure")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"user guide.pdf", "user_guide.pdf"},
		{"../../etc/passwd", "passwd"},
		{"отчёт.xlsx", "_____.xlsx"},
		{"plain.txt", "plain.txt"},
	}
	for _, tc := range cases {
		if got := sanitizeFilename(tc.in); got != tc.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
