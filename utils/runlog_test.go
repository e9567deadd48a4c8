package utils

import (
	"strings"
	"sync"
	"testing"
)

func TestRunLogAccumulates(t *testing.T) {
	rl := NewRunLog(NewLogger())
	rl.Logf("fetched %d records", 12)
	rl.Errorf("provider %s down", "landbank")

	if rl.Len() != 2 {
		t.Fatalf("Len = %d; want 2", rl.Len())
	}

	out := rl.Render()
	if !strings.Contains(out, "INFO  fetched 12 records") {
		t.Errorf("rendered log missing info line:\n%s", out)
	}
	if !strings.Contains(out, "ERROR provider landbank down") {
		t.Errorf("rendered log missing error line:\n%s", out)
	}
}

func TestRunLogConcurrentAppends(t *testing.T) {
	rl := NewRunLog(NewLogger())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				rl.Logf("line %d", j)
			}
		}()
	}
	wg.Wait()

	if rl.Len() != 500 {
		t.Errorf("Len = %d; want 500", rl.Len())
	}
}
