package sqlite

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
)

func openTestKV(t *testing.T) *KV {
	t.Helper()
	kv, err := Open(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func TestKV_GetMissing(t *testing.T) {
	kv := openTestKV(t)

	body, ok, err := kv.Get(context.Background(), "cart")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok || body != nil {
		t.Fatalf("expected absent record, got ok=%v body=%q", ok, body)
	}
}

func TestKV_PutGetOverwrite(t *testing.T) {
	kv := openTestKV(t)
	ctx := context.Background()

	if err := kv.Put(ctx, "cart", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := kv.Put(ctx, "cart", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}

	body, ok, err := kv.Get(ctx, "cart")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected record to exist")
	}
	if !bytes.Equal(body, []byte(`{"v":2}`)) {
		t.Fatalf("body = %q, want latest write", body)
	}
}

func TestKV_KeysAreIndependent(t *testing.T) {
	kv := openTestKV(t)
	ctx := context.Background()

	if err := kv.Put(ctx, "cart", []byte("a")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := kv.Put(ctx, "user", []byte("b")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := kv.Delete(ctx, "cart"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, ok, _ := kv.Get(ctx, "cart"); ok {
		t.Fatal("cart should be gone")
	}
	body, ok, err := kv.Get(ctx, "user")
	if err != nil || !ok || !bytes.Equal(body, []byte("b")) {
		t.Fatalf("user record damaged: body=%q ok=%v err=%v", body, ok, err)
	}
}

func TestKV_DeleteMissingIsNoop(t *testing.T) {
	kv := openTestKV(t)
	if err := kv.Delete(context.Background(), "nope"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
}
