package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"glucose-sentinel/internal/alerting/notify"
	analysis "glucose-sentinel/internal/analysis/domain"
	"glucose-sentinel/internal/analysis/render"
	"glucose-sentinel/internal/observability/metrics"
	telemetry "glucose-sentinel/internal/telemetry/domain"
)

// Outcome is the terminal state of one pipeline invocation. Every outcome
// acknowledges the trigger as processed: a record that cannot be analyzed
// must never be redelivered forever.
type Outcome string

const (
	OutcomeBadInput       Outcome = "bad_input"
	OutcomeNoData         Outcome = "no_data"
	OutcomeNormal         Outcome = "normal"
	OutcomeAlertSent      Outcome = "alert_sent"
	OutcomeDeliveryFailed Outcome = "delivery_failed"
	OutcomeFault          Outcome = "fault"
)

// AttachmentName is the fixed filename of the rendered trend chart.
const AttachmentName = "trend.svg"

const defaultDispatchTimeout = 10 * time.Second

// Result summarizes one invocation.
type Result struct {
	Outcome         Outcome                  `json:"outcome"`
	State           analysis.GlucoseState    `json:"state,omitempty"`
	Activity        analysis.ActivityContext `json:"activity,omitempty"`
	Prediction      float64                  `json:"prediction,omitempty"`
	Recommendations []string                 `json:"recommendations,omitempty"`
}

// Service runs the analysis pipeline for one device per invocation. It holds
// no mutable state between invocations; concurrent invocations only share
// the injected collaborators.
type Service struct {
	history         telemetry.HistoryStore
	channel         notify.Channel
	template        *notify.Template
	settings        analysis.Settings
	logger          *log.Logger
	dispatchTimeout time.Duration
	attachPDF       bool
}

// ServiceOption customizes the analysis service.
type ServiceOption func(*Service)

// WithDispatchTimeout bounds the notification round trip.
func WithDispatchTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		if timeout > 0 {
			s.dispatchTimeout = timeout
		}
	}
}

// WithPDFDigest adds a PDF digest attachment alongside the trend chart.
func WithPDFDigest() ServiceOption {
	return func(s *Service) {
		s.attachPDF = true
	}
}

// NewService constructs the analysis service.
func NewService(history telemetry.HistoryStore, channel notify.Channel, template *notify.Template, settings analysis.Settings, logger *log.Logger, opts ...ServiceOption) (*Service, error) {
	if history == nil {
		return nil, errors.New("analysis: nil history store")
	}
	if channel == nil {
		return nil, errors.New("analysis: nil notification channel")
	}
	if template == nil {
		defaultTemplate, err := notify.NewTemplate("")
		if err != nil {
			return nil, err
		}
		template = defaultTemplate
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	service := &Service{
		history:         history,
		channel:         channel,
		template:        template,
		settings:        settings,
		logger:          logger,
		dispatchTimeout: defaultDispatchTimeout,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Analyze runs the full pipeline for a device: window retrieval, trend
// extrapolation, classification, recommendation synthesis and, when the
// state warrants it, rendering and dispatch. It never returns an error:
// all failure modes collapse into an acknowledged outcome.
func (s *Service) Analyze(ctx context.Context, deviceID string) (result Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			// Malformed stored data must not poison the trigger stream.
			s.logger.Printf("analysis: recovered fault for device %q: %v", deviceID, r)
			result = Result{Outcome: OutcomeFault}
		}
		metrics.ObserveAnalysis(string(result.Outcome), time.Since(start))
	}()

	if err := telemetry.ValidateDeviceID(deviceID); err != nil {
		s.logger.Printf("analysis: rejected device id %q: %v", deviceID, err)
		return Result{Outcome: OutcomeBadInput}
	}

	samples, err := s.history.RecentWindow(ctx, deviceID, s.settings.WindowSize)
	if err != nil {
		s.logger.Printf("analysis: history query failed for device %s: %v", deviceID, err)
		return Result{Outcome: OutcomeFault}
	}
	window := telemetry.NewWindow(samples)
	if window.Empty() {
		return Result{Outcome: OutcomeNoData}
	}

	latest := window.Latest()
	prediction := analysis.Predict(window, s.settings)
	state := analysis.ClassifyGlucose(latest.Glucose, s.settings)
	activity := analysis.ClassifyActivity(latest)

	if state == analysis.StateNormal {
		return Result{Outcome: OutcomeNormal, State: state, Activity: activity, Prediction: prediction}
	}

	recommendations := analysis.Recommend(state, activity, latest)
	msg, err := s.compose(deviceID, window, state, prediction, recommendations)
	if err != nil {
		s.logger.Printf("analysis: compose failed for device %s: %v", deviceID, err)
		return Result{Outcome: OutcomeFault, State: state, Activity: activity, Prediction: prediction, Recommendations: recommendations}
	}

	dispatchCtx, cancel := context.WithTimeout(ctx, s.dispatchTimeout)
	defer cancel()
	if err := s.channel.Send(dispatchCtx, msg); err != nil {
		s.logger.Printf("analysis: alert delivery failed for device %s: %v", deviceID, err)
		metrics.IncAlertDelivery(metrics.ResultError)
		return Result{Outcome: OutcomeDeliveryFailed, State: state, Activity: activity, Prediction: prediction, Recommendations: recommendations}
	}
	metrics.IncAlertDelivery(metrics.ResultSuccess)
	s.logger.Printf("analysis: alert sent for device %s state=%s glucose=%.2f prediction=%.2f", deviceID, state, latest.Glucose, prediction)
	return Result{Outcome: OutcomeAlertSent, State: state, Activity: activity, Prediction: prediction, Recommendations: recommendations}
}

func (s *Service) compose(deviceID string, window telemetry.Window, state analysis.GlucoseState, prediction float64, recommendations []string) (notify.Message, error) {
	latest := window.Latest()
	body, err := s.template.Render(notify.TemplateData{
		Classification:  state.Label(),
		DeviceID:        deviceID,
		Glucose:         fmt.Sprintf("%.2f", latest.Glucose),
		Prediction:      fmt.Sprintf("%.2f", prediction),
		HeartRate:       latest.HeartRate,
		Oxygen:          latest.Oxygen,
		Recommendations: recommendations,
	})
	if err != nil {
		return notify.Message{}, err
	}

	chart := render.TrendSVG(window.Glucoses(), window.InstabilityPeaks(), prediction, window.Timestamps())
	msg := notify.Message{
		Subject:  fmt.Sprintf("%s - %.0f mg/dL", state.Label(), latest.Glucose),
		HTMLBody: body,
		Attachments: []notify.Attachment{
			{Filename: AttachmentName, ContentType: "image/svg+xml", Data: chart},
		},
	}

	if s.attachPDF {
		rows := make([]notify.SampleRow, 0, window.Len())
		for _, sample := range window.Samples() {
			rows = append(rows, notify.SampleRow{
				Time:      sample.Time(),
				Glucose:   sample.Glucose,
				Variation: sample.Variation,
				HeartRate: sample.HeartRate,
				Oxygen:    sample.Oxygen,
			})
		}
		digest, err := notify.BuildAlertPDF(notify.AlertDocument{
			Classification:  state.Label(),
			DeviceID:        deviceID,
			Glucose:         latest.Glucose,
			Prediction:      prediction,
			HeartRate:       latest.HeartRate,
			Oxygen:          latest.Oxygen,
			Recommendations: recommendations,
			Samples:         rows,
		})
		if err != nil {
			return notify.Message{}, err
		}
		msg.Attachments = append(msg.Attachments, notify.Attachment{
			Filename:    "alert.pdf",
			ContentType: "application/pdf",
			Data:        digest,
		})
	}
	return msg, nil
}
