package ingest

import (
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"glucose-sentinel/internal/eventing"
	"glucose-sentinel/internal/telemetry/application/events"
	telemetry "glucose-sentinel/internal/telemetry/domain"
)

type fakeRepo struct {
	inserted []telemetry.Sample
	err      error
}

func (f *fakeRepo) Insert(_ context.Context, sample telemetry.Sample) error {
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, sample)
	return nil
}

type fixedClock struct{ now time.Time }

func (f fixedClock) Now() time.Time { return f.now }

func newTestHandler(t *testing.T, repo *fakeRepo, bus eventing.EventBus) *Handler {
	t.Helper()
	var publisher *eventing.Publisher
	if bus != nil {
		publisher = eventing.NewPublisher(bus)
	}
	handler, err := NewHandler(repo, publisher, log.New(&strings.Builder{}, "", 0),
		WithClock(fixedClock{now: time.Unix(1_700_000_500, 0)}))
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler
}

func TestIngestDecodesFixedPointAndFlags(t *testing.T) {
	repo := &fakeRepo{}
	bus := eventing.NewInMemoryBus()
	var published []events.SampleStored
	bus.Subscribe(eventing.EventTypeOf[events.SampleStored](), func(_ context.Context, event any) error {
		published = append(published, event.(events.SampleStored))
		return nil
	})
	handler := newTestHandler(t, repo, bus)

	// flags 0b11001: rising trend, bradycardia off, tachycardia off,
	// hypoxia on, sensor unstable on.
	body := `{"deviceId":"dev-1","glucoseRaw":19025,"maxVariationRaw":350,"bpm":70,"oxygen":97,"flags":25,"time":1700000000}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ingest/telemetry", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("expected 1 insert, got %d", len(repo.inserted))
	}
	sample := repo.inserted[0]
	if sample.Glucose != 190.25 || sample.Variation != 3.5 {
		t.Fatalf("unexpected fixed-point decode: %v / %v", sample.Glucose, sample.Variation)
	}
	if sample.Trend != telemetry.TrendRising {
		t.Fatalf("expected rising trend")
	}
	if sample.Bradycardia || sample.Tachycardia || !sample.Hypoxia || !sample.SensorUnstable {
		t.Fatalf("unexpected flag decode: %+v", sample)
	}
	if sample.Timestamp != 1_700_000_000 {
		t.Fatalf("unexpected timestamp %d", sample.Timestamp)
	}
	if len(published) != 1 || published[0].DeviceID != "dev-1" || published[0].EventID == "" {
		t.Fatalf("unexpected published events: %+v", published)
	}
}

func TestIngestCoercesNumericStrings(t *testing.T) {
	repo := &fakeRepo{}
	handler := newTestHandler(t, repo, nil)

	body := `{"deviceId":"dev-1","glucoseRaw":"12000","maxVariationRaw":"150","bpm":"85","oxygen":"96","flags":"0"}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ingest/telemetry", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("expected insert, got %d", len(repo.inserted))
	}
	sample := repo.inserted[0]
	if sample.Glucose != 120 || sample.HeartRate != 85 || sample.Oxygen != 96 {
		t.Fatalf("unexpected coerced values: %+v", sample)
	}
}

func TestIngestMillisecondTimestamp(t *testing.T) {
	repo := &fakeRepo{}
	handler := newTestHandler(t, repo, nil)

	body := `{"deviceId":"dev-1","glucoseRaw":12000,"bpm":70,"oxygen":97,"time":1700000000000}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ingest/telemetry", strings.NewReader(body)))

	if len(repo.inserted) != 1 || repo.inserted[0].Timestamp != 1_700_000_000 {
		t.Fatalf("expected millisecond timestamp normalized, got %+v", repo.inserted)
	}
}

func TestIngestMissingTimeUsesClock(t *testing.T) {
	repo := &fakeRepo{}
	handler := newTestHandler(t, repo, nil)

	body := `{"deviceId":"dev-1","glucoseRaw":12000,"bpm":70,"oxygen":97}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ingest/telemetry", strings.NewReader(body)))

	if len(repo.inserted) != 1 || repo.inserted[0].Timestamp != 1_700_000_500 {
		t.Fatalf("expected clock timestamp, got %+v", repo.inserted)
	}
}

func TestIngestAcknowledgesMalformedPayload(t *testing.T) {
	repo := &fakeRepo{}
	handler := newTestHandler(t, repo, nil)

	for _, body := range []string{
		`not json`,
		`{"glucoseRaw":12000}`,
		`{"deviceId":"dev-1","glucoseRaw":"abc"}`,
	} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ingest/telemetry", strings.NewReader(body)))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected malformed payload acknowledged, got %d for %s", rec.Code, body)
		}
		if !strings.Contains(rec.Body.String(), "ignored") {
			t.Fatalf("expected ignored status in response, got %s", rec.Body.String())
		}
	}
	if len(repo.inserted) != 0 {
		t.Fatalf("expected no inserts, got %d", len(repo.inserted))
	}
}

func TestIngestInsertFailure(t *testing.T) {
	repo := &fakeRepo{err: context.DeadlineExceeded}
	handler := newTestHandler(t, repo, nil)

	body := `{"deviceId":"dev-1","glucoseRaw":12000,"bpm":70,"oxygen":97}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ingest/telemetry", strings.NewReader(body)))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on insert failure, got %d", rec.Code)
	}
}
