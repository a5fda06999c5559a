package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"glucose-sentinel/internal/eventing"
	"glucose-sentinel/internal/observability/metrics"
	"glucose-sentinel/internal/telemetry/application/events"
	telemetry "glucose-sentinel/internal/telemetry/domain"
)

// Flag bit positions in the device flags word.
const (
	flagBitTrendRising = 0
	flagBitBradycardia = 1
	flagBitTachycardia = 2
	flagBitHypoxia     = 3
	flagBitUnstable    = 4
)

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Handler ingests raw telemetry posted by the wearable gateway. Devices
// cannot retry intelligently, so malformed payloads are acknowledged with
// 200 and dropped after a diagnostic log line.
type Handler struct {
	repo      telemetry.SampleRepository
	publisher *eventing.Publisher
	clock     Clock
	logger    *log.Logger
}

// Option configures the handler.
type Option func(*Handler)

// WithClock overrides the clock.
func WithClock(clock Clock) Option {
	return func(h *Handler) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// NewHandler constructs an ingest handler.
func NewHandler(repo telemetry.SampleRepository, publisher *eventing.Publisher, logger *log.Logger, opts ...Option) (*Handler, error) {
	if repo == nil {
		return nil, errors.New("telemetry ingest: nil repository")
	}
	if logger == nil {
		logger = log.Default()
	}
	handler := &Handler{
		repo:      repo,
		publisher: publisher,
		clock:     systemClock{},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(handler)
	}
	return handler, nil
}

// ingestRequest is the raw device payload. Gateways emit scaled integers
// for decimal fields and sometimes quote numbers, so every numeric field
// tolerates a numeric-looking string.
type ingestRequest struct {
	DeviceID     string   `json:"deviceId"`
	GlucoseRaw   flexInt  `json:"glucoseRaw"`
	VariationRaw flexInt  `json:"maxVariationRaw"`
	HeartRate    flexInt  `json:"bpm"`
	Oxygen       flexInt  `json:"oxygen"`
	Flags        flexInt  `json:"flags"`
	Time         *flexInt `json:"time"`
}

// flexInt decodes a JSON number or a numeric string into an int64.
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	raw = strings.Trim(raw, `"`)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// Some gateways send decimals for integer fields.
		parsed, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			return fmt.Errorf("not a number: %q", raw)
		}
		value = int64(parsed)
	}
	*f = flexInt(value)
	return nil
}

func (r ingestRequest) toSample(now time.Time) (telemetry.Sample, error) {
	if err := telemetry.ValidateDeviceID(r.DeviceID); err != nil {
		return telemetry.Sample{}, err
	}
	flags := int64(r.Flags)
	trend := telemetry.TrendFalling
	if flags>>flagBitTrendRising&1 == 1 {
		trend = telemetry.TrendRising
	}
	timestamp := now.Unix()
	if r.Time != nil && int64(*r.Time) > 0 {
		timestamp = telemetry.EpochTime(int64(*r.Time)).Unix()
	}
	sample := telemetry.Sample{
		DeviceID:       r.DeviceID,
		Timestamp:      timestamp,
		Glucose:        float64(r.GlucoseRaw) / 100,
		Variation:      float64(r.VariationRaw) / 100,
		Trend:          trend,
		HeartRate:      int(r.HeartRate),
		Oxygen:         int(r.Oxygen),
		Bradycardia:    flags>>flagBitBradycardia&1 == 1,
		Tachycardia:    flags>>flagBitTachycardia&1 == 1,
		Hypoxia:        flags>>flagBitHypoxia&1 == 1,
		SensorUnstable: flags>>flagBitUnstable&1 == 1,
	}
	if err := sample.Validate(); err != nil {
		return telemetry.Sample{}, err
	}
	return sample, nil
}

// ServeHTTP decodes, persists and announces one telemetry sample.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.drop(w, start, "decode", err)
		return
	}
	sample, err := req.toSample(h.clock.Now())
	if err != nil {
		h.drop(w, start, "validate", err)
		return
	}

	if err := h.repo.Insert(r.Context(), sample); err != nil {
		h.logger.Printf("telemetry ingest: insert failed for device %s: %v", sample.DeviceID, err)
		metrics.ObserveIngest(metrics.ResultError, time.Since(start))
		metrics.IncIngestError("insert")
		http.Error(w, "insert error", http.StatusInternalServerError)
		return
	}

	h.announce(r.Context(), sample)

	metrics.ObserveIngest(metrics.ResultSuccess, time.Since(start))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "stored", "deviceId": sample.DeviceID, "timestamp": sample.Timestamp})
}

// drop acknowledges a malformed payload. The device would only resend the
// same bytes, so a 4xx buys nothing.
func (h *Handler) drop(w http.ResponseWriter, start time.Time, reason string, err error) {
	h.logger.Printf("telemetry ingest: dropped payload (%s): %v", reason, err)
	metrics.ObserveIngest(metrics.ResultError, time.Since(start))
	metrics.IncIngestError(reason)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "ignored"})
}

func (h *Handler) announce(ctx context.Context, sample telemetry.Sample) {
	if h.publisher == nil {
		return
	}
	event := events.SampleStored{
		EventID:    eventing.NewEventID(),
		DeviceID:   sample.DeviceID,
		Timestamp:  sample.Timestamp,
		OccurredAt: h.clock.Now().UTC(),
	}
	if err := h.publisher.Publish(ctx, event); err != nil {
		// Sample is stored; analysis can still be triggered manually.
		h.logger.Printf("telemetry ingest: publish failed for device %s: %v", sample.DeviceID, err)
	}
}
