package wallet

import (
	"context"
	"sync"
	"testing"

	xerrors "PersonaChain/internal/errors"
)

func TestEnsureWalletCreatesOnce(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	first, created, err := svc.EnsureWallet(ctx, "user-1", "Harper")
	if err != nil {
		t.Fatalf("EnsureWallet: %v", err)
	}
	if !created {
		t.Fatal("first call should create the wallet")
	}
	if first.Address == "" || first.PrivateKey == "" {
		t.Fatalf("generated record incomplete: %+v", first)
	}

	second, created, err := svc.EnsureWallet(ctx, "user-1", "Harper")
	if err != nil {
		t.Fatalf("EnsureWallet: %v", err)
	}
	if created {
		t.Fatal("second call must not create a new wallet")
	}
	if second.Address != first.Address {
		t.Fatalf("expected stable address, got %s then %s", first.Address, second.Address)
	}
}

func TestEnsureWalletConcurrent(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	const goroutines = 16
	addresses := make([]string, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			record, _, err := svc.EnsureWallet(ctx, "user-1", "Rishi")
			if err != nil {
				t.Errorf("EnsureWallet: %v", err)
				return
			}
			addresses[slot] = record.Address
		}(i)
	}
	wg.Wait()

	for _, addr := range addresses[1:] {
		if addr != addresses[0] {
			t.Fatalf("concurrent creations observed different wallets: %v", addresses)
		}
	}
}

func TestEnsureWalletIsolatesPersonas(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	harper, _, err := svc.EnsureWallet(ctx, "user-1", "Harper")
	if err != nil {
		t.Fatalf("EnsureWallet: %v", err)
	}
	rishi, _, err := svc.EnsureWallet(ctx, "user-1", "Rishi")
	if err != nil {
		t.Fatalf("EnsureWallet: %v", err)
	}
	if harper.Address == rishi.Address {
		t.Fatal("distinct personas must get distinct wallets")
	}
}

func TestGetMissingWallet(t *testing.T) {
	svc := NewService(NewMemoryStore())
	_, err := svc.Get(context.Background(), "user-1", "Eric")
	if xerrors.CodeOf(err) != xerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestSetBaseName(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	if _, _, err := svc.EnsureWallet(ctx, "user-1", "Rishi"); err != nil {
		t.Fatalf("EnsureWallet: %v", err)
	}
	if err := svc.SetBaseName(ctx, "user-1", "Rishi", "rishi.base.eth"); err != nil {
		t.Fatalf("SetBaseName: %v", err)
	}
	record, err := svc.Get(ctx, "user-1", "Rishi")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if record.BaseName != "rishi.base.eth" {
		t.Fatalf("base name not persisted: %+v", record)
	}
}

func TestAddressesSkipsMissing(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	harper, _, err := svc.EnsureWallet(ctx, "user-1", "Harper")
	if err != nil {
		t.Fatalf("EnsureWallet: %v", err)
	}
	addrs, err := svc.Addresses(ctx, "user-1", []string{"Harper", "Eric"})
	if err != nil {
		t.Fatalf("Addresses: %v", err)
	}
	if len(addrs) != 1 || addrs["Harper"] != harper.Address {
		t.Fatalf("unexpected map: %+v", addrs)
	}
}
