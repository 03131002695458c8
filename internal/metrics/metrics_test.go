package metrics

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestMetricsServer(t *testing.T) {
	srv := Start(18917)
	time.Sleep(100 * time.Millisecond)
	defer srv.Stop(context.Background())

	RecordSearch("hit", 1200*time.Millisecond)
	RecordFetch("dev", 2048, 300*time.Millisecond)
	RecordFetch("tissue", 4096, 450*time.Millisecond)
	RecordDisplay()

	resp, err := http.Get("http://localhost:18917/metrics")
	if err != nil {
		t.Fatalf("failed to fetch metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read metrics body: %v", err)
	}
	text := string(body)

	for _, want := range []string{
		`riceplot_searches_total{outcome="hit"}`,
		`riceplot_image_fetch_bytes_total{chart="dev"}`,
		`riceplot_image_fetch_bytes_total{chart="tissue"}`,
		"riceplot_displays_total",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestServerStop_Nil(t *testing.T) {
	var s *Server
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stopping a nil server should be a no-op, got %v", err)
	}
}
