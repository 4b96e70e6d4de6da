package outwriter

import (
	"fmt"
	"io"

	"github.com/huangsam/qbmatrix/schema"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

// Metric names written to the textfile.
const (
	metricPointsEarned    = "qbmatrix_points_earned"
	metricPointsAvailable = "qbmatrix_points_available"
	metricOverallScore    = "qbmatrix_overall_score"
	metricPayoutTier      = "qbmatrix_payout_tier"
	metricScenarios       = "qbmatrix_scenarios"
)

// payoutLevel orders payout tiers for the payout gauge.
var payoutLevel = map[schema.PayoutTier]float64{
	schema.ZeroPayout: 0,
	schema.MinPayout:  1,
	schema.MidPayout:  2,
	schema.MaxPayout:  3,
}

// WriteMetricsTextfile writes per-hospital gauges in the Prometheus text
// exposition format, suitable for a node_exporter textfile collector.
func WriteMetricsTextfile(results []schema.HospitalMatrix, path string) error {
	return writeWithFile(path, func(w io.Writer) error {
		return writeMetricFamilies(w, BuildMetricFamilies(results))
	}, "Wrote metrics")
}

// BuildMetricFamilies converts matrix results into gauge families.
func BuildMetricFamilies(results []schema.HospitalMatrix) []*dto.MetricFamily {
	earned := newGaugeFamily(metricPointsEarned, "Points earned today per hospital and category.")
	available := newGaugeFamily(metricPointsAvailable, "Points available per hospital and category.")
	score := newGaugeFamily(metricOverallScore, "Overall score per hospital as points earned over points available.")
	payout := newGaugeFamily(metricPayoutTier, "Current payout tier per hospital (0 none, 1 min, 2 mid, 3 max).")
	scenarios := newGaugeFamily(metricScenarios, "Deduplicated scenarios per hospital and category.")

	for _, h := range results {
		hospital := labelPair("hospital", h.HospitalID)
		score.Metric = append(score.Metric, gauge(h.CurrentScore, hospital))
		payout.Metric = append(payout.Metric, gauge(payoutLevel[h.CurrentPayout], hospital))
		for _, c := range h.Categories {
			category := labelPair("category", string(c.Category))
			earned.Metric = append(earned.Metric, gauge(c.PointsEarned, hospital, category))
			available.Metric = append(available.Metric, gauge(c.PointsAvailable, hospital, category))
			scenarios.Metric = append(scenarios.Metric, gauge(float64(len(c.Scenarios)), hospital, category))
		}
	}
	return []*dto.MetricFamily{earned, available, score, payout, scenarios}
}

func writeMetricFamilies(w io.Writer, families []*dto.MetricFamily) error {
	for _, mf := range families {
		if len(mf.Metric) == 0 {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

func newGaugeFamily(name, help string) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
	}
}

func labelPair(name, value string) *dto.LabelPair {
	return &dto.LabelPair{Name: proto.String(name), Value: proto.String(value)}
}

func gauge(v float64, labels ...*dto.LabelPair) *dto.Metric {
	return &dto.Metric{
		Label: labels,
		Gauge: &dto.Gauge{Value: proto.Float64(v)},
	}
}
