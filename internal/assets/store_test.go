package assets

import (
	"context"
	"testing"

	xerrors "PersonaChain/internal/errors"
)

func TestMemoryStorePutGet(t *testing.T) {
	store := NewMemoryStore("https://cdn.example/assets")
	ctx := context.Background()

	url, err := store.Put(ctx, "cat.png", "image/png", []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "https://cdn.example/assets/cat.png" {
		t.Fatalf("unexpected url %s", url)
	}

	asset, err := store.Get(ctx, "cat.png")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if asset.ContentType != "image/png" || len(asset.Data) != 3 {
		t.Fatalf("unexpected asset %+v", asset)
	}

	// 取回的切片是副本，修改不应影响存储内容。
	asset.Data[0] = 99
	again, err := store.Get(ctx, "cat.png")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if again.Data[0] != 1 {
		t.Fatal("stored data must not be aliased by Get result")
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	store := NewMemoryStore("")
	_, err := store.Get(context.Background(), "nope.png")
	if xerrors.CodeOf(err) != xerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestMemoryStoreValidation(t *testing.T) {
	store := NewMemoryStore("")
	if _, err := store.Put(context.Background(), " ", "image/png", []byte{1}); err == nil {
		t.Fatal("expected error for blank name")
	}
	if _, err := store.Put(context.Background(), "x.png", "image/png", nil); err == nil {
		t.Fatal("expected error for empty data")
	}
}

func TestFSStoreRoundTrip(t *testing.T) {
	store, err := NewFSStore(t.TempDir(), "https://cdn.example/files")
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	ctx := context.Background()

	url, err := store.Put(ctx, "dog.png", "image/png", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "https://cdn.example/files/dog.png" {
		t.Fatalf("unexpected url %s", url)
	}

	asset, err := store.Get(ctx, "dog.png")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(asset.Data) != "png-bytes" || asset.ContentType != "image/png" {
		t.Fatalf("unexpected asset %+v", asset)
	}
}

func TestFSStoreStripsPathComponents(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFSStore(dir, "")
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	if _, err := store.Put(context.Background(), "../escape.png", "image/png", []byte{1}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := store.Get(context.Background(), "escape.png"); err != nil {
		t.Fatalf("Get after base-name normalization: %v", err)
	}
}

func TestFSStoreGetMissing(t *testing.T) {
	store, err := NewFSStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}
	_, err = store.Get(context.Background(), "absent.png")
	if xerrors.CodeOf(err) != xerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}
