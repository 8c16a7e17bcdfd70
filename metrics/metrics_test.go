package metrics_test

import (
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/s5kern/wfs/metrics"
)

func scrape(t *testing.T) string {
	t.Helper()
	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, req)
	body, err := io.ReadAll(rec.Result().Body)
	if err != nil {
		t.Fatalf("reading scrape body: %v", err)
	}
	return string(body)
}

func TestSetFreeBlocksIsScraped(t *testing.T) {
	metrics.SetFreeBlocks(42)
	body := scrape(t)
	if !strings.Contains(body, "wfs_s5fs_free_blocks 42") {
		t.Fatalf("scrape missing wfs_s5fs_free_blocks 42:\n%s", body)
	}
}

func TestSetFreeInodesIsScraped(t *testing.T) {
	metrics.SetFreeInodes(7)
	body := scrape(t)
	if !strings.Contains(body, "wfs_s5fs_free_inodes 7") {
		t.Fatalf("scrape missing wfs_s5fs_free_inodes 7:\n%s", body)
	}
}

func TestSetOpenVnodesIsScraped(t *testing.T) {
	metrics.SetOpenVnodes(3)
	body := scrape(t)
	if !strings.Contains(body, "wfs_vfs_open_vnodes 3") {
		t.Fatalf("scrape missing wfs_vfs_open_vnodes 3:\n%s", body)
	}
}

func TestSampleMobjOnlyAddsPositiveDeltas(t *testing.T) {
	before := scrape(t)
	beforeHits := extractValue(t, before, "wfs_mobj_pframe_hits_total")

	metrics.SampleMobj(5, -3)

	after := scrape(t)
	afterHits := extractValue(t, after, "wfs_mobj_pframe_hits_total")
	if afterHits != beforeHits+5 {
		t.Fatalf("pframe_hits_total = %v, want %v (+5)", afterHits, beforeHits+5)
	}
	// A negative misses delta (a counter can only move forward) must be
	// ignored rather than rejected with an error, since SampleMobj has
	// no error return; it should simply leave the counter unchanged.
	afterMisses := extractValue(t, after, "wfs_mobj_pframe_misses_total")
	beforeMisses := extractValue(t, before, "wfs_mobj_pframe_misses_total")
	if afterMisses != beforeMisses {
		t.Fatalf("pframe_misses_total changed on a negative delta: %v -> %v", beforeMisses, afterMisses)
	}
}

func extractValue(t *testing.T, body, metric string) float64 {
	t.Helper()
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, metric+" ") {
			var v float64
			if _, err := fmt.Sscan(line[len(metric)+1:], &v); err != nil {
				t.Fatalf("parsing %q: %v", line, err)
			}
			return v
		}
	}
	t.Fatalf("metric %s not found in scrape:\n%s", metric, body)
	return 0
}
