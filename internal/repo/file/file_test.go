package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hamed0406/botscope/internal/domain"
)

func TestStore_MissingFileIsEmpty(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "urls.json"))
	got, err := s.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("want empty, got %+v", got)
	}
}

func TestStore_CorruptFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(path).LoadAll(context.Background()); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestStore_RoundTripJSONAndYAML(t *testing.T) {
	want := []domain.Target{
		{Name: "svc1", URL: "https://example.com"},
		{Name: "svc2", URL: "http://localhost:8080/health"},
	}
	for _, name := range []string{"urls.json", "urls.yaml"} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := New(filepath.Join(t.TempDir(), "sub", name))
			if err := s.SaveAll(ctx, want); err != nil {
				t.Fatalf("SaveAll: %v", err)
			}
			got, err := s.LoadAll(ctx)
			if err != nil {
				t.Fatalf("LoadAll: %v", err)
			}
			if len(got) != len(want) {
				t.Fatalf("len: want %d got %d", len(want), len(got))
			}
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("[%d] want %+v got %+v", i, want[i], got[i])
				}
			}
			// saveAll(loadAll()) is stable
			if err := s.SaveAll(ctx, got); err != nil {
				t.Fatalf("SaveAll again: %v", err)
			}
			again, _ := s.LoadAll(ctx)
			if len(again) != len(want) || again[1] != want[1] {
				t.Fatalf("unstable round trip: %+v", again)
			}
		})
	}
}

func TestStore_ReadsCompactJSONList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.json")
	if err := os.WriteFile(path, []byte(`[{"name":"bot","url":"https://bot.example"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := New(path).LoadAll(context.Background())
	if err != nil || len(got) != 1 || got[0].Name != "bot" {
		t.Fatalf("got %+v err=%v", got, err)
	}
}

func TestStore_ConcurrentSavesLeaveValidFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := New(filepath.Join(dir, "urls.json"))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			list := make([]domain.Target, i%5+1)
			for j := range list {
				list[j] = domain.Target{Name: "n", URL: "https://example.com"}
			}
			if err := s.SaveAll(ctx, list); err != nil {
				t.Errorf("SaveAll: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if _, err := s.LoadAll(ctx); err != nil {
		t.Fatalf("file corrupted by concurrent saves: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %d entries", len(entries))
	}
}
