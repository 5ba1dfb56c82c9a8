package usecase

import (
	"context"
	"database/sql"
	"testing"

	"github.com/avoronov/netsuite-assistant/internal/core/domain"
)

func TestCatalogDeleteRemovesVectorsRowAndFile(t *testing.T) {
	store := &docStoreFake{
		doc:         &domain.Document{ID: 42, UserID: 7, StoragePath: "7/abc_guide.pdf"},
		deleteMatch: true,
	}
	index := &vectorIndexFake{deleteMatch: true}
	storage := &objectStorageFake{}
	uc := NewDocumentCatalogUseCase(store, index, storage, nil)

	deleted, err := uc.Delete(context.Background(), 7, 42)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !deleted {
		t.Fatal("expected a match")
	}

	if len(index.filters) != 1 {
		t.Fatalf("expected 1 vector delete, got %d", len(index.filters))
	}
	filter := index.filters[0]
	if len(filter.Conditions) != 2 {
		t.Fatalf("expected 2 filter conditions, got %d", len(filter.Conditions))
	}
	fields := map[string]int64{}
	for _, cond := range filter.Conditions {
		fields[cond.Field] = cond.Value
	}
	if fields["document_id"] != 42 || fields["owner_id"] != 7 {
		t.Errorf("filter conditions = %v", fields)
	}
	if !store.deleted {
		t.Error("row not deleted")
	}
	if len(storage.removed) != 1 || storage.removed[0] != "7/abc_guide.pdf" {
		t.Errorf("stored file removal = %v", storage.removed)
	}
}

func TestCatalogDeleteWrongOwnerIsNoMatch(t *testing.T) {
	store := &docStoreFake{doc: &domain.Document{ID: 42, UserID: 9}}
	index := &vectorIndexFake{}
	uc := NewDocumentCatalogUseCase(store, index, &objectStorageFake{}, nil)

	deleted, err := uc.Delete(context.Background(), 7, 42)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted {
		t.Error("expected no match for another user's document")
	}
	if len(index.filters) != 0 {
		t.Error("must not touch the index for a foreign document")
	}
}

func TestCatalogDeleteAbsentDocumentIsNoMatch(t *testing.T) {
	store := &docStoreFake{getErr: domain.WrapError(domain.ErrDocumentNotFound, "get document", sql.ErrNoRows)}
	uc := NewDocumentCatalogUseCase(store, &vectorIndexFake{}, &objectStorageFake{}, nil)

	deleted, err := uc.Delete(context.Background(), 7, 99)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted {
		t.Error("expected no match for an absent document")
	}
}

func TestCatalogListPassesThrough(t *testing.T) {
	store := &docStoreFake{docs: []domain.Document{{ID: 1}, {ID: 2}}}
	uc := NewDocumentCatalogUseCase(store, &vectorIndexFake{}, &objectStorageFake{}, nil)

	docs, err := uc.List(context.Background(), 7)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("expected 2 documents, got %d", len(docs))
	}
}
