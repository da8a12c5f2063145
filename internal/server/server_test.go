package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/KaramelBytes/serpdiff/internal/dataset"
	"github.com/KaramelBytes/serpdiff/internal/server"
	"github.com/rs/zerolog"
)

const exportCSV = `search_string,CTR_BK,CTR_DU,total_clicks,tags,BK_set1_title,DU_set1_title
alpha,10%,20%,100,"x,y",Top,Top
beta,0.5,0.4,50,y,A,B
gamma,NA,NA,0,,,
`

func newServer(t *testing.T, pageSize int) *httptest.Server {
	t.Helper()
	srv, err := server.New(dataset.NewStore(), server.Options{PageSize: pageSize}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func upload(t *testing.T, ts *httptest.Server, field, name, content string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, name)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := io.WriteString(fw, content); err != nil {
		t.Fatalf("write form: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}
	resp, err := http.Post(ts.URL+"/upload", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, want int) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	if resp.StatusCode != want {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("status %d, want %d: %s", resp.StatusCode, want, b)
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func get(t *testing.T, ts *httptest.Server, path string, want int) map[string]any {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatalf("get %s: %v", path, err)
	}
	return decode(t, resp, want)
}

func TestHealthAndEmptyServer(t *testing.T) {
	ts := newServer(t, 0)
	h := get(t, ts, "/health", http.StatusOK)
	if h["status"] != "ok" || h["generation"] != float64(0) {
		t.Fatalf("unexpected health %v", h)
	}
	get(t, ts, "/api/dataset", http.StatusNotFound)
	get(t, ts, "/api/records", http.StatusNotFound)
	get(t, ts, "/api/records/0", http.StatusNotFound)
}

func TestUploadFailures(t *testing.T) {
	ts := newServer(t, 0)
	decode(t, upload(t, ts, "other", "export.csv", exportCSV), http.StatusBadRequest)

	out := decode(t, upload(t, ts, "csvFile", "bad.csv", "search_string,total_clicks\nq,1\n"), http.StatusUnprocessableEntity)
	if out["error"] != "Parse error: CSV must contain two CTR_* or *_set1_* columns" {
		t.Fatalf("unexpected error %v", out["error"])
	}
	decode(t, upload(t, ts, "csvFile", "notes.pdf", "%PDF"), http.StatusUnsupportedMediaType)

	resp, err := http.Post(ts.URL+"/upload", "text/plain", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	decode(t, resp, http.StatusBadRequest)
}

func TestUploadKeepsPreviousOnSchemaError(t *testing.T) {
	ts := newServer(t, 0)
	d := decode(t, upload(t, ts, "csvFile", "export.csv", exportCSV), http.StatusOK)
	if d["record_count"] != float64(3) || d["generation"] != float64(1) {
		t.Fatalf("unexpected dataset %v", d)
	}
	labels := d["labels"].(map[string]any)
	if labels["control"] != "BK" || labels["experiment"] != "DU" {
		t.Fatalf("unexpected labels %v", labels)
	}
	tags := d["tags"].([]any)
	if len(tags) != 2 || tags[0] != "x" {
		t.Fatalf("unexpected tags %v", tags)
	}

	decode(t, upload(t, ts, "csvFile", "bad.csv", "a,b\n1,2\n"), http.StatusUnprocessableEntity)
	cur := get(t, ts, "/api/dataset", http.StatusOK)
	if cur["generation"] != float64(1) || cur["id"] != d["id"] {
		t.Fatalf("dataset replaced by failed upload: %v", cur)
	}
}

func TestRecordsPagingAndSummary(t *testing.T) {
	ts := newServer(t, 1)
	decode(t, upload(t, ts, "csvFile", "export.csv", exportCSV), http.StatusOK)

	out := get(t, ts, "/api/records?ctrl_op=%3E%3D&ctrl=1", http.StatusOK)
	sum := out["summary"].(map[string]any)
	if sum["total_clicks"] != float64(150) || sum["queries"] != float64(2) || sum["no_matches"] != false {
		t.Fatalf("unexpected summary %v", sum)
	}
	if !strings.Contains(out["summary_text"].(string), "Difference: ▲3.33%") {
		t.Fatalf("unexpected summary text %q", out["summary_text"])
	}
	page := out["page"].(map[string]any)
	items := page["items"].([]any)
	if len(items) != 1 || items[0].(map[string]any)["key"] != "alpha" || page["done"] != false {
		t.Fatalf("unexpected first page %v", page)
	}

	next := get(t, ts, "/api/records/next", http.StatusOK)["page"].(map[string]any)
	if len(next["items"].([]any)) != 1 || next["done"] != true || next["loaded"] != float64(2) {
		t.Fatalf("unexpected second page %v", next)
	}
	end := get(t, ts, "/api/records/next", http.StatusOK)["page"].(map[string]any)
	if len(end["items"].([]any)) != 0 || end["done"] != true {
		t.Fatalf("expected empty page at end, got %v", end)
	}

	none := get(t, ts, "/api/records?tag=zzz", http.StatusOK)
	if none["summary"].(map[string]any)["no_matches"] != true {
		t.Fatalf("expected no matches: %v", none["summary"])
	}
	if none["summary_text"] != "No queries match current filters" {
		t.Fatalf("unexpected text %v", none["summary_text"])
	}

	get(t, ts, "/api/records?lg=maybe", http.StatusBadRequest)
}

func TestNextAfterReplaceReappliesQuery(t *testing.T) {
	ts := newServer(t, 1)
	decode(t, upload(t, ts, "csvFile", "export.csv", exportCSV), http.StatusOK)
	get(t, ts, "/api/records?tag=y", http.StatusOK)
	get(t, ts, "/api/records/next", http.StatusOK)

	decode(t, upload(t, ts, "csvFile", "export.csv", exportCSV), http.StatusOK)
	out := get(t, ts, "/api/records/next", http.StatusOK)
	page := out["page"].(map[string]any)
	if out["refreshed"] != true || page["generation"] != float64(2) || page["loaded"] != float64(1) {
		t.Fatalf("expected re-applied first page on new generation, got %v", out)
	}
}

func TestNextWithoutQuery(t *testing.T) {
	ts := newServer(t, 0)
	decode(t, upload(t, ts, "csvFile", "export.csv", exportCSV), http.StatusOK)
	get(t, ts, "/api/records/next", http.StatusConflict)
}

func TestRecordByIndex(t *testing.T) {
	ts := newServer(t, 0)
	decode(t, upload(t, ts, "csvFile", "export.csv", exportCSV), http.StatusOK)

	out := get(t, ts, "/api/records/1", http.StatusOK)
	rec := out["record"].(map[string]any)
	if rec["key"] != "beta" || out["delta"] != "▼10.00%" {
		t.Fatalf("unexpected record %v", out)
	}
	diff := out["diff"].([]any)
	if len(diff) != 2 || diff[0].(map[string]any)["title_changed"] != true {
		t.Fatalf("unexpected diff %v", diff)
	}
	get(t, ts, "/api/records/x", http.StatusBadRequest)
	get(t, ts, "/api/records/99", http.StatusNotFound)
}

func TestRecordByIndexChecksGeneration(t *testing.T) {
	ts := newServer(t, 0)
	decode(t, upload(t, ts, "csvFile", "export.csv", exportCSV), http.StatusOK)
	page := get(t, ts, "/api/records?tag=y", http.StatusOK)["page"].(map[string]any)
	gen := page["generation"].(float64)
	out := get(t, ts, "/api/records/1?generation=1", http.StatusOK)
	if gen != 1 || out["record"].(map[string]any)["key"] != "beta" {
		t.Fatalf("unexpected record %v", out)
	}

	replaced := "search_string,CTR_BK,CTR_DU,total_clicks\nxxx,1,2,3\nyyy,4,5,6\n"
	decode(t, upload(t, ts, "csvFile", "next.csv", replaced), http.StatusOK)
	get(t, ts, "/api/records/1?generation=1", http.StatusConflict)
	get(t, ts, "/api/records/1?generation=abc", http.StatusBadRequest)
	cur := get(t, ts, "/api/records/1?generation=2", http.StatusOK)
	if cur["record"].(map[string]any)["key"] != "yyy" || cur["generation"] != float64(2) {
		t.Fatalf("unexpected record on new generation %v", cur)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newServer(t, 0)
	decode(t, upload(t, ts, "csvFile", "export.csv", exportCSV), http.StatusOK)
	get(t, ts, "/health", http.StatusOK)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	body := string(b)
	for _, want := range []string{
		`serpdiff_uploads_total{result="ok"} 1`,
		`serpdiff_dataset_records 3`,
		`serpdiff_http_requests_total{route="/health",status="200"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q:\n%s", want, body)
		}
	}
}
