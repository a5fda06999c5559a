package application

import (
	"context"
	"errors"
	"log"
	"strings"
	"testing"

	"glucose-sentinel/internal/alerting/notify"
	analysis "glucose-sentinel/internal/analysis/domain"
	telemetry "glucose-sentinel/internal/telemetry/domain"
)

type stubHistory struct {
	samples []telemetry.Sample
	err     error
	panics  bool
}

func (s stubHistory) RecentWindow(context.Context, string, int) ([]telemetry.Sample, error) {
	if s.panics {
		panic("corrupt row")
	}
	return s.samples, s.err
}

type captureChannel struct {
	messages []notify.Message
	err      error
}

func (c *captureChannel) Send(_ context.Context, msg notify.Message) error {
	if c.err != nil {
		return c.err
	}
	c.messages = append(c.messages, msg)
	return nil
}

func newService(t *testing.T, history telemetry.HistoryStore, channel notify.Channel, opts ...ServiceOption) *Service {
	t.Helper()
	service, err := NewService(history, channel, nil, analysis.DefaultSettings(), log.New(&strings.Builder{}, "", 0), opts...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func risingWindow(bpm, oxygen int) []telemetry.Sample {
	glucoses := []float64{100, 110, 120, 130, 140, 150, 160, 170, 185, 190}
	samples := make([]telemetry.Sample, 0, len(glucoses))
	for i, g := range glucoses {
		samples = append(samples, telemetry.Sample{
			DeviceID:  "dev-1",
			Timestamp: 1_700_000_000 + int64(i)*300,
			Glucose:   g,
			Variation: 5,
			Trend:     telemetry.TrendRising,
			HeartRate: bpm,
			Oxygen:    oxygen,
		})
	}
	return samples
}

func TestAnalyzeRestingHyperglycemiaSendsAlert(t *testing.T) {
	channel := &captureChannel{}
	service := newService(t, stubHistory{samples: risingWindow(70, 97)}, channel)

	result := service.Analyze(context.Background(), "dev-1")
	if result.Outcome != OutcomeAlertSent {
		t.Fatalf("expected alert_sent, got %s", result.Outcome)
	}
	if result.State != analysis.StateHyperglycemia || result.Activity != analysis.ContextResting {
		t.Fatalf("unexpected classification %s/%s", result.State, result.Activity)
	}
	if result.Prediction != 199 {
		t.Fatalf("unexpected prediction %v", result.Prediction)
	}
	if len(result.Recommendations) < 2 ||
		!strings.Contains(result.Recommendations[0], "light walk") ||
		!strings.Contains(result.Recommendations[1], "water") {
		t.Fatalf("unexpected recommendation order %v", result.Recommendations)
	}

	if len(channel.messages) != 1 {
		t.Fatalf("expected one delivery, got %d", len(channel.messages))
	}
	msg := channel.messages[0]
	if msg.Subject != "HYPERGLYCEMIA - 190 mg/dL" {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	if len(msg.Attachments) != 1 || msg.Attachments[0].Filename != AttachmentName {
		t.Fatalf("expected trend attachment, got %v", msg.Attachments)
	}
	if !strings.Contains(string(msg.Attachments[0].Data), "<svg") {
		t.Fatalf("expected svg attachment body")
	}
	if !strings.Contains(msg.HTMLBody, "dev-1") || !strings.Contains(msg.HTMLBody, "199.00") {
		t.Fatalf("unexpected body %s", msg.HTMLBody)
	}
}

func TestAnalyzeHypoglycemiaAgitated(t *testing.T) {
	channel := &captureChannel{}
	samples := []telemetry.Sample{{
		DeviceID: "dev-1", Timestamp: 1_700_000_000,
		Glucose: 60, Variation: 4, HeartRate: 120, Oxygen: 90,
	}}
	service := newService(t, stubHistory{samples: samples}, channel)

	result := service.Analyze(context.Background(), "dev-1")
	if result.Outcome != OutcomeAlertSent || result.State != analysis.StateHypoglycemia {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Activity != analysis.ContextAgitated {
		t.Fatalf("expected agitated context, got %s", result.Activity)
	}
	if !strings.Contains(result.Recommendations[0], "fast-acting carbohydrates") {
		t.Fatalf("unexpected first recommendation %v", result.Recommendations)
	}
}

func TestAnalyzeNormalStateSkipsDispatch(t *testing.T) {
	channel := &captureChannel{}
	samples := []telemetry.Sample{{
		DeviceID: "dev-1", Timestamp: 1_700_000_000,
		Glucose: 120, HeartRate: 70, Oxygen: 97, SensorUnstable: true,
	}}
	service := newService(t, stubHistory{samples: samples}, channel)

	result := service.Analyze(context.Background(), "dev-1")
	if result.Outcome != OutcomeNormal {
		t.Fatalf("expected normal outcome, got %s", result.Outcome)
	}
	if len(result.Recommendations) != 0 {
		t.Fatalf("flags must not produce advice without an alert: %v", result.Recommendations)
	}
	if len(channel.messages) != 0 {
		t.Fatalf("expected no delivery, got %d", len(channel.messages))
	}
}

func TestAnalyzeBadDeviceIDSkipsQuery(t *testing.T) {
	channel := &captureChannel{}
	service := newService(t, stubHistory{err: errors.New("must not be called")}, channel)

	for _, id := range []string{"", "   ", "dev\x00"} {
		result := service.Analyze(context.Background(), id)
		if result.Outcome != OutcomeBadInput {
			t.Fatalf("expected bad_input for %q, got %s", id, result.Outcome)
		}
	}
}

func TestAnalyzeEmptyWindow(t *testing.T) {
	service := newService(t, stubHistory{}, &captureChannel{})
	result := service.Analyze(context.Background(), "dev-1")
	if result.Outcome != OutcomeNoData {
		t.Fatalf("expected no_data, got %s", result.Outcome)
	}
}

func TestAnalyzeStoreFailure(t *testing.T) {
	service := newService(t, stubHistory{err: errors.New("boom")}, &captureChannel{})
	result := service.Analyze(context.Background(), "dev-1")
	if result.Outcome != OutcomeFault {
		t.Fatalf("expected fault, got %s", result.Outcome)
	}
}

func TestAnalyzeDeliveryFailure(t *testing.T) {
	channel := &captureChannel{err: errors.New("smtp down")}
	service := newService(t, stubHistory{samples: risingWindow(70, 97)}, channel)
	result := service.Analyze(context.Background(), "dev-1")
	if result.Outcome != OutcomeDeliveryFailed {
		t.Fatalf("expected delivery_failed, got %s", result.Outcome)
	}
	if result.State != analysis.StateHyperglycemia {
		t.Fatalf("analysis result must survive delivery failure, got %+v", result)
	}
}

func TestAnalyzeRecoversFromPanic(t *testing.T) {
	service := newService(t, stubHistory{panics: true}, &captureChannel{})
	result := service.Analyze(context.Background(), "dev-1")
	if result.Outcome != OutcomeFault {
		t.Fatalf("expected fault after panic, got %s", result.Outcome)
	}
}

func TestAnalyzePDFDigestAttached(t *testing.T) {
	channel := &captureChannel{}
	service := newService(t, stubHistory{samples: risingWindow(70, 97)}, channel, WithPDFDigest())
	result := service.Analyze(context.Background(), "dev-1")
	if result.Outcome != OutcomeAlertSent {
		t.Fatalf("expected alert_sent, got %s", result.Outcome)
	}
	msg := channel.messages[0]
	if len(msg.Attachments) != 2 || msg.Attachments[1].Filename != "alert.pdf" {
		t.Fatalf("expected pdf digest attachment, got %v", msg.Attachments)
	}
}
