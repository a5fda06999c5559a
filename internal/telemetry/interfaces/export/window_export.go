package export

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"glucose-sentinel/internal/observability/metrics"
	telemetry "glucose-sentinel/internal/telemetry/domain"
)

// WindowHandler serves the recent sample window of a device as an XLSX
// workbook for clinicians. Route shape: /api/v1/devices/{id}/window.xlsx
type WindowHandler struct {
	history telemetry.HistoryStore
	limit   int
	logger  *log.Logger
}

// NewWindowHandler constructs the export handler.
func NewWindowHandler(history telemetry.HistoryStore, limit int, logger *log.Logger) (*WindowHandler, error) {
	if history == nil {
		return nil, errors.New("window export: nil history store")
	}
	if limit <= 0 {
		limit = telemetry.DefaultWindowSize
	}
	if logger == nil {
		logger = log.Default()
	}
	return &WindowHandler{history: history, limit: limit, logger: logger}, nil
}

// ServeHTTP renders the window workbook.
func (h *WindowHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	deviceID, ok := deviceIDFromPath(r.URL.Path)
	if !ok || telemetry.ValidateDeviceID(deviceID) != nil {
		metrics.ObserveExport("xlsx", metrics.ResultError, time.Since(start))
		http.Error(w, "invalid device id", http.StatusBadRequest)
		return
	}

	samples, err := h.history.RecentWindow(r.Context(), deviceID, h.limit)
	if err != nil {
		h.logger.Printf("window export: query failed for device %s: %v", deviceID, err)
		metrics.ObserveExport("xlsx", metrics.ResultError, time.Since(start))
		http.Error(w, "query error", http.StatusInternalServerError)
		return
	}
	window := telemetry.NewWindow(samples)
	if window.Empty() {
		metrics.ObserveExport("xlsx", metrics.ResultError, time.Since(start))
		http.Error(w, "no samples", http.StatusNotFound)
		return
	}

	data, err := BuildWindowXLSX(deviceID, window)
	if err != nil {
		h.logger.Printf("window export: build failed for device %s: %v", deviceID, err)
		metrics.ObserveExport("xlsx", metrics.ResultError, time.Since(start))
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}

	metrics.ObserveExport("xlsx", metrics.ResultSuccess, time.Since(start))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", deviceID+"-window.xlsx"))
	_, _ = w.Write(data)
}

// deviceIDFromPath extracts {id} from /api/v1/devices/{id}/window.xlsx.
func deviceIDFromPath(path string) (string, bool) {
	const prefix = "/api/v1/devices/"
	const suffix = "/window.xlsx"
	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(path, prefix), suffix)
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

// BuildWindowXLSX renders a two-sheet workbook: a summary and one row per
// sample, ascending by time.
func BuildWindowXLSX(deviceID string, window telemetry.Window) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	samplesSheet := "samples"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(samplesSheet)

	latest := window.Latest()
	_ = f.SetCellValue(summarySheet, "A1", "Glucose Sample Window")
	_ = f.SetCellValue(summarySheet, "A3", "Device")
	_ = f.SetCellValue(summarySheet, "B3", deviceID)
	_ = f.SetCellValue(summarySheet, "A4", "Samples")
	_ = f.SetCellValue(summarySheet, "B4", window.Len())
	_ = f.SetCellValue(summarySheet, "A5", "Latest Reading (UTC)")
	_ = f.SetCellValue(summarySheet, "B5", latest.Time().Format("2006-01-02 15:04:05"))
	_ = f.SetCellValue(summarySheet, "A6", "Latest Glucose (mg/dL)")
	_ = f.SetCellValue(summarySheet, "B6", latest.Glucose)
	_ = f.SetCellValue(summarySheet, "A7", "Latest Heart Rate (BPM)")
	_ = f.SetCellValue(summarySheet, "B7", latest.HeartRate)
	_ = f.SetCellValue(summarySheet, "A8", "Latest Oxygen (%)")
	_ = f.SetCellValue(summarySheet, "B8", latest.Oxygen)

	_ = f.SetCellValue(samplesSheet, "A1", "Time (UTC)")
	_ = f.SetCellValue(samplesSheet, "B1", "Glucose (mg/dL)")
	_ = f.SetCellValue(samplesSheet, "C1", "Variation")
	_ = f.SetCellValue(samplesSheet, "D1", "Trend")
	_ = f.SetCellValue(samplesSheet, "E1", "BPM")
	_ = f.SetCellValue(samplesSheet, "F1", "SpO2")
	_ = f.SetCellValue(samplesSheet, "G1", "Flags")
	for i, sample := range window.Samples() {
		row := i + 2
		trend := "falling"
		if sample.Trend == telemetry.TrendRising {
			trend = "rising"
		}
		_ = f.SetCellValue(samplesSheet, fmt.Sprintf("A%d", row), sample.Time().Format("2006-01-02 15:04:05"))
		_ = f.SetCellValue(samplesSheet, fmt.Sprintf("B%d", row), sample.Glucose)
		_ = f.SetCellValue(samplesSheet, fmt.Sprintf("C%d", row), sample.Variation)
		_ = f.SetCellValue(samplesSheet, fmt.Sprintf("D%d", row), trend)
		_ = f.SetCellValue(samplesSheet, fmt.Sprintf("E%d", row), sample.HeartRate)
		_ = f.SetCellValue(samplesSheet, fmt.Sprintf("F%d", row), sample.Oxygen)
		_ = f.SetCellValue(samplesSheet, fmt.Sprintf("G%d", row), flagSummary(sample))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func flagSummary(sample telemetry.Sample) string {
	var flags []string
	if sample.SensorUnstable {
		flags = append(flags, "sensor_unstable")
	}
	if sample.Tachycardia {
		flags = append(flags, "tachycardia")
	}
	if sample.Bradycardia {
		flags = append(flags, "bradycardia")
	}
	if sample.Hypoxia {
		flags = append(flags, "hypoxia")
	}
	return strings.Join(flags, ",")
}
