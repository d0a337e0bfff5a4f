package markdown

import (
	"context"
	"strings"
	"sync"
	"testing"
)

func TestRenderHeading(t *testing.T) {
	r := New("")
	out, err := r.Render(context.Background(), "# Hello\n\nsome *text*", "a.md", 40)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "Hello") || !strings.Contains(out, "text") {
		t.Fatalf("output missing content: %q", out)
	}
}

func TestRenderEmpty(t *testing.T) {
	out, err := New("dark").Render(context.Background(), "  \n", "a.md", 40)
	if err != nil || out != "" {
		t.Fatalf("render empty = %q, %v", out, err)
	}
}

func TestRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New("dark").Render(ctx, "x", "a.md", 40); err == nil {
		t.Fatal("cancelled context should fail")
	}
}

func TestRenderConcurrent(t *testing.T) {
	r := New("dark")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			if _, err := r.Render(context.Background(), "- item", "a.md", 20+w%3); err != nil {
				t.Errorf("render: %v", err)
			}
		}(i)
	}
	wg.Wait()
	if len(r.byWidth) != 3 {
		t.Fatalf("cached renderers = %d, want 3", len(r.byWidth))
	}
}

func TestUnknownStyleFails(t *testing.T) {
	if _, err := New("no-such-style").Render(context.Background(), "x", "a.md", 40); err == nil {
		t.Fatal("unknown style should fail")
	}
}
