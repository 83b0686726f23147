package agent

import (
	"context"
	"testing"
	"time"

	"github.com/ledgerflow/ledgerflow/internal/models"
)

func TestClassCacheHitAndNormalization(t *testing.T) {
	c := NewClassCache(time.Minute, nil)
	defer c.Close()

	cls := models.Classification{Intent: models.IntentView, Confidence: 0.85, Source: models.SourceEngine}
	c.Put(context.Background(), "Show My  Expenses", cls)

	got, ok := c.Get(context.Background(), "  show my expenses ")
	if !ok {
		t.Fatal("expected hit after Put with different casing and spacing")
	}
	if got.Intent != models.IntentView || got.Confidence != 0.85 {
		t.Fatalf("got %+v", got)
	}
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
}

func TestClassCacheMiss(t *testing.T) {
	c := NewClassCache(time.Minute, nil)
	defer c.Close()

	if _, ok := c.Get(context.Background(), "never stored"); ok {
		t.Fatal("expected miss")
	}
}

func TestClassCacheExpiry(t *testing.T) {
	c := NewClassCache(10*time.Millisecond, nil)
	defer c.Close()

	c.Put(context.Background(), "show my expenses", models.Classification{Intent: models.IntentView})
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get(context.Background(), "show my expenses"); ok {
		t.Fatal("entry should have expired")
	}
	if c.Len() != 0 {
		t.Fatalf("Len() = %d after expiry, want 0", c.Len())
	}
}
