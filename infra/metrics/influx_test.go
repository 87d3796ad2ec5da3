package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/parkops/workplan/core/metrics"
)

func influxConfig(url string) coremetrics.Config {
	return coremetrics.Config{
		InfluxURL:    url + "/api/v2/write",
		InfluxToken:  "tok",
		InfluxOrg:    "org",
		InfluxBucket: "bucket",
	}
}

func TestInfluxSink_RecordAnalysis(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(influxConfig(srv.URL))
	defer sink.Close()
	now := time.Now()
	ev := coremetrics.AnalysisEvent{
		Project:         "q3",
		RunID:           "run-1",
		Verdict:         "infeasible",
		Structural:      false,
		StageReached:    2,
		WallTimeSeconds: 1.2345,
		ProvenOptimal:   true,
		TotalOverload:   8,
		Time:            now,
	}
	if err := sink.RecordAnalysis(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("analysis_finished").
		AddTag("project", "q3").
		AddTag("run_id", "run-1").
		AddTag("verdict", "infeasible").
		AddTag("structural", "false").
		AddTag("component", "analysis_manager").
		AddField("stage_reached", 2).
		AddField("wall_time_seconds", 1.235).
		AddField("proven_optimal", true).
		AddField("total_overload", 8).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if strings.TrimSpace(body) != expected {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestInfluxSink_RecordUtilization(t *testing.T) {
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		bodies = append(bodies, strings.TrimSpace(string(data)))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(influxConfig(srv.URL))
	defer sink.Close()
	now := time.Now()
	evs := []coremetrics.UtilizationEvent{
		{Project: "q3", RunID: "run-1", Role: "Ranger", Percent: 66.6667, Time: now},
		{Project: "q3", RunID: "run-1", Role: "SeniorRanger", Percent: 12.5, Time: now},
	}
	if err := sink.RecordUtilization(evs); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p1 := write.NewPointWithMeasurement("analysis_utilization").
		AddTag("project", "q3").
		AddTag("run_id", "run-1").
		AddTag("role", "Ranger").
		AddTag("component", "analysis_manager").
		AddField("percent", 66.667).
		SetTime(now)
	p2 := write.NewPointWithMeasurement("analysis_utilization").
		AddTag("project", "q3").
		AddTag("run_id", "run-1").
		AddTag("role", "SeniorRanger").
		AddTag("component", "analysis_manager").
		AddField("percent", 12.5).
		SetTime(now)
	exp1 := strings.TrimSpace(write.PointToLineProtocol(p1, time.Nanosecond))
	exp2 := strings.TrimSpace(write.PointToLineProtocol(p2, time.Nanosecond))
	if len(bodies) != 2 || bodies[0] != exp1 || bodies[1] != exp2 {
		t.Errorf("unexpected bodies: %#v", bodies)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(influxConfig(srv.URL))
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}

func TestNewInfluxSinkWithFallbackUnreachable(t *testing.T) {
	sink := NewInfluxSinkWithFallback(influxConfig("http://127.0.0.1:1"))
	if _, ok := sink.(coremetrics.NopSink); !ok {
		t.Fatalf("expected NopSink for an unreachable endpoint, got %T", sink)
	}
}

func TestNewInfluxSinkWithFallbackHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"name":"influxdb","status":"pass"}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(influxConfig(srv.URL))
	is, ok := sink.(*InfluxSink)
	if !ok {
		t.Fatalf("expected InfluxSink when the health check passes, got %T", sink)
	}
	is.Close()
}
