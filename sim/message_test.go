package sim

import (
	"math/rand"
	"strings"
	"sync"
	"testing"
)

func TestNewRandomMessage_Shape(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		m := NewRandomMessage(i, rng)
		if m.Index != i {
			t.Fatalf("index = %d, want %d", m.Index, i)
		}
		if len(m.Recipient) != 10 || strings.Trim(m.Recipient, digits) != "" {
			t.Fatalf("recipient %q is not 10 digits", m.Recipient)
		}
		if len(m.Body) < 5 || len(m.Body) > 100 {
			t.Fatalf("body length %d outside [5, 100]", len(m.Body))
		}
		if strings.Trim(m.Body, bodyCharset) != "" {
			t.Fatalf("body %q has characters outside the charset", m.Body)
		}
	}
}

func TestMessageSource_ClaimsEveryIndexOnce(t *testing.T) {
	// GIVEN a source of 10,000 messages shared by 16 goroutines
	const total = 10000
	src := NewMessageSource(total)
	seen := make([]int, total)
	var mu sync.Mutex
	var wg sync.WaitGroup

	// WHEN every goroutine claims until exhaustion
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				idx, ok := src.Claim()
				if !ok {
					return
				}
				mu.Lock()
				seen[idx]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// THEN each index was claimed exactly once
	for i, n := range seen {
		if n != 1 {
			t.Fatalf("index %d claimed %d times", i, n)
		}
	}
	if src.Claimed() != total {
		t.Errorf("Claimed() = %d, want %d", src.Claimed(), total)
	}
}

func TestMessageSource_Empty(t *testing.T) {
	src := NewMessageSource(0)
	if _, ok := src.Claim(); ok {
		t.Error("Claim on empty source returned ok")
	}
	if src.Claimed() != 0 {
		t.Errorf("Claimed() = %d, want 0", src.Claimed())
	}
}

func TestMessageSource_ExhaustedStaysExhausted(t *testing.T) {
	src := NewMessageSource(2)
	for i := 0; i < 2; i++ {
		if idx, ok := src.Claim(); !ok || idx != i {
			t.Fatalf("claim %d = (%d, %v)", i, idx, ok)
		}
	}
	for i := 0; i < 5; i++ {
		if _, ok := src.Claim(); ok {
			t.Fatal("claim after exhaustion returned ok")
		}
	}
	if src.Claimed() != 2 {
		t.Errorf("Claimed() = %d, want 2", src.Claimed())
	}
}
