package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/apexathon/careerdash/internal/config"
	"github.com/apexathon/careerdash/internal/recommend"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
	Auth   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
			Auth:   r.Header.Get("Authorization"),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			if strings.HasSuffix(r.URL.Path, "/events") {
				w.Header().Set("Content-Type", "text/event-stream")
			} else {
				w.Header().Set("Content-Type", "application/json")
			}
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":{"message":"not found","type":"not_found"}}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		token:      "test-token",
		httpClient: ts.server.Client(),
	}
}

func (ts *testServer) find(method, path string) (recordedRequest, bool) {
	for _, r := range ts.requests {
		if r.Method == method && r.Path == path {
			return r, true
		}
	}
	return recordedRequest{}, false
}

var ctx = context.Background()

func TestFormSet_SendsPatch(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"PATCH /form/draft": `{"province":"Ontario"}`,
	})

	resp, err := ts.client().patch(ctx, "/form/draft", map[string]string{"province": "Ontario"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := decodeJSON(resp, nil); err != nil {
		t.Fatalf("decode error: %v", err)
	}

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	r := ts.requests[0]
	if r.Method != "PATCH" {
		t.Errorf("method = %q, want PATCH", r.Method)
	}
	if r.Auth != "Bearer test-token" {
		t.Errorf("auth = %q, want Bearer test-token", r.Auth)
	}
	var body map[string]string
	if err := json.Unmarshal([]byte(r.Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["province"] != "Ontario" {
		t.Errorf("body.province = %q, want Ontario", body["province"])
	}
}

func TestFormSubmit_Incomplete(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":{"message":"profile incomplete: missing age","type":"invalid_request_error"}}`))
	}))
	defer ts.Close()

	client := &apiClient{baseURL: ts.URL, httpClient: ts.Client()}
	resp, err := client.post(ctx, "/form/submit", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = decodeJSON(resp, nil)
	if err == nil {
		t.Fatal("expected error for 422")
	}
	if !strings.Contains(err.Error(), "missing age") {
		t.Errorf("error %q should carry the server message", err)
	}
}

func TestOpenDashboard_PrintsRevealsAndUnmounts(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()
	noColor = true

	stream := strings.Join([]string{
		`event: snapshot`,
		`data: {"id":"d1","loading":true,"recommendations":[{"id":1,"title":"Nurse","relevanceScore":80,"band":"green"}]}`,
		``,
		`: ping`,
		``,
		`event: reveal`,
		`data: {"type":"reveal","item":{"id":2,"title":"Welder","relevanceScore":60},"visible":2,"loading":false}`,
		``,
		`event: done`,
		`data: {"type":"done","visible":2,"loading":false}`,
		``,
		`event: reveal`,
		`data: {"type":"reveal","item":{"id":3,"title":"Never","relevanceScore":40},"visible":3,"loading":false}`,
		``,
	}, "\n")

	ts := newTestServer(t, map[string]string{
		"POST /dashboards":          `{"id":"d1","loading":true,"recommendations":[]}`,
		"GET /dashboards/d1/events": stream,
		"DELETE /dashboards/d1":     ``,
	})

	var out bytes.Buffer
	id, err := openDashboard(ctx, ts.client(), &out, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "d1" {
		t.Errorf("id = %q, want d1", id)
	}

	got := out.String()
	if !strings.Contains(got, "1. Nurse  80% match") {
		t.Errorf("output missing snapshot card:\n%s", got)
	}
	if !strings.Contains(got, "2. Welder  60% match") {
		t.Errorf("output missing revealed card:\n%s", got)
	}
	if strings.Contains(got, "Never") {
		t.Errorf("events after done should be ignored:\n%s", got)
	}

	if _, ok := ts.find("DELETE", "/dashboards/d1"); !ok {
		t.Error("dashboard was not unmounted")
	}
}

func TestOpenDashboard_Keep(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /dashboards":          `{"id":"d2","loading":false,"recommendations":[]}`,
		"GET /dashboards/d2/events": "event: snapshot\ndata: {\"id\":\"d2\"}\n\nevent: done\ndata: {}\n\n",
	})

	var out bytes.Buffer
	if _, err := openDashboard(ctx, ts.client(), &out, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := ts.find("DELETE", "/dashboards/d2"); ok {
		t.Error("dashboard should stay mounted with keep")
	}
}

func TestReadSSE_MultiLineData(t *testing.T) {
	in := "event: a\ndata: one\ndata: two\n\n\n\nevent: b\ndata: three\n\n"

	var got []string
	err := readSSE(strings.NewReader(in), func(name, data string) (bool, error) {
		got = append(got, name+"="+data)
		return false, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"a=one\ntwo", "b=three"}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d: %q", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestReadSSE_CallbackError(t *testing.T) {
	in := "event: a\ndata: x\n\nevent: b\ndata: y\n\n"
	calls := 0
	err := readSSE(strings.NewReader(in), func(name, data string) (bool, error) {
		calls++
		return false, fmt.Errorf("boom")
	})
	if err == nil || err.Error() != "boom" {
		t.Fatalf("err = %v, want boom", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestAskQuestion_TemporaryDashboard(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /dashboards":          `{"id":"tmp"}`,
		"POST /dashboards/tmp/chat": `{"busy":false,"transcript":[{"role":"assistant","content":"Hi"},{"role":"user","content":"q"},{"role":"assistant","content":"Try nursing."}]}`,
		"DELETE /dashboards/tmp":    ``,
	})

	reply, err := askQuestion(ctx, ts.client(), "", "What should I study?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "Try nursing." {
		t.Errorf("reply = %q, want %q", reply, "Try nursing.")
	}

	r, ok := ts.find("POST", "/dashboards/tmp/chat")
	if !ok {
		t.Fatal("chat request not sent")
	}
	if !strings.Contains(r.Body, `"message":"What should I study?"`) {
		t.Errorf("chat body = %s", r.Body)
	}
	if _, ok := ts.find("DELETE", "/dashboards/tmp"); !ok {
		t.Error("temporary dashboard was not unmounted")
	}
}

func TestAskQuestion_ExistingDashboard(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /dashboards/abc/chat": `{"transcript":[{"role":"assistant","content":"ok"}]}`,
	})

	if _, err := askQuestion(ctx, ts.client(), "abc", "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := ts.find("POST", "/dashboards"); ok {
		t.Error("no dashboard should be mounted when one is given")
	}
	if _, ok := ts.find("DELETE", "/dashboards/abc"); ok {
		t.Error("a caller's dashboard must not be unmounted")
	}
}

func TestAskQuestion_Apology(t *testing.T) {
	body := fmt.Sprintf(`{"transcript":[{"role":"assistant","content":%q}]}`, "Sorry, I encountered an error. Please try again.")
	ts := newTestServer(t, map[string]string{
		"POST /dashboards/abc/chat": body,
	})

	if _, err := askQuestion(ctx, ts.client(), "abc", "hello"); err == nil {
		t.Error("expected error when the reply is the apology")
	}
}

func TestAskQuestion_Empty(t *testing.T) {
	ts := newTestServer(t, nil)
	if _, err := askQuestion(ctx, ts.client(), "abc", "   "); err == nil {
		t.Error("expected error for blank question")
	}
	if len(ts.requests) != 0 {
		t.Errorf("expected no requests, got %d", len(ts.requests))
	}
}

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	result := colorize(colorGreen, "test")
	if strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=true should not contain ANSI codes, got %q", result)
	}

	noColor = false
	result = colorize(colorGreen, "test")
	if !strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", result)
	}
}

func TestPrintCard_BandColor(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()
	noColor = false

	var out bytes.Buffer
	printCard(&out, recommend.Recommendation{ID: 1, Title: "Nurse", RelevanceScore: 80})
	if !strings.Contains(out.String(), colorGreen+"80%") {
		t.Errorf("score 80 should render green, got %q", out.String())
	}

	out.Reset()
	printCard(&out, recommend.Recommendation{ID: 6, Title: "Clerk", RelevanceScore: 20})
	if !strings.Contains(out.String(), colorRed+"20%") {
		t.Errorf("score 20 should render red, got %q", out.String())
	}
}

func TestAPIClientAuth(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /health": `{"status":"ok"}`,
	})

	client := ts.client()
	client.token = ""
	resp, err := client.get(ctx, "/health")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if ts.requests[0].Auth != "" {
		t.Errorf("auth header should be empty without a token, got %q", ts.requests[0].Auth)
	}
}

func TestDecodeJSON_PlainErrorBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
		w.Write([]byte("upstream exploded"))
	}))
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = decodeJSON(resp, nil)
	if err == nil || !strings.Contains(err.Error(), "upstream exploded") {
		t.Errorf("err = %v, want raw body in message", err)
	}
}

func TestStreamingClient_NoTimeout(t *testing.T) {
	c := &apiClient{baseURL: "http://x", httpClient: &http.Client{Timeout: 5}}
	s := c.streaming()
	if s.httpClient.Timeout != 0 {
		t.Errorf("streaming timeout = %v, want 0", s.httpClient.Timeout)
	}
	if c.httpClient.Timeout != 5 {
		t.Error("streaming must not modify the original client")
	}
}

func TestConfigShow_OmitsToken(t *testing.T) {
	cfg := config.Config{}
	cfg.Server.APIToken = "secret"
	for _, k := range config.ShowAll(cfg) {
		if k.Value == "secret" {
			t.Errorf("key %s exposes the API token", k.Key)
		}
	}
}

func TestPayloadLabel(t *testing.T) {
	if payloadLabel(true) != "submitted profile" {
		t.Errorf("payloadLabel(true) = %q", payloadLabel(true))
	}
	if payloadLabel(false) != "fixed stub" {
		t.Errorf("payloadLabel(false) = %q", payloadLabel(false))
	}
}
