package source

import (
	"errors"
	"fmt"
	"strings"

	"github.com/huangsam/qbmatrix/schema"
)

// ErrDuplicateRow is returned when a hospital reports the same measure twice
// outside of a crosswalk merge.
var ErrDuplicateRow = errors.New("duplicate measure row")

type rowKey struct {
	hospital string
	measure  string
}

// MergeXref rewrites crosswalked hospital IDs to their target and merges the
// rows that now share a hospital and measure into the first of them.
// Numerators, denominators and expected counts are summed. Market expected is
// the mean of the rows that report one; zero counts as missing. Thresholds
// come from the first row that has them and value is averaged, weighted by
// denominator. Rows not touched by the crosswalk pass through.
func MergeXref(rows []schema.MeasureRow, xref map[string]string) []schema.MeasureRow {
	if len(xref) == 0 {
		return rows
	}

	remapped := make([]schema.MeasureRow, len(rows))
	touched := make(map[rowKey]bool)
	for i, r := range rows {
		if target, ok := xref[strings.TrimSpace(r.HospitalID)]; ok {
			r.HospitalID = target
			touched[rowKey{target, schema.MeasureKey(r.Measure)}] = true
		}
		remapped[i] = r
	}

	out := make([]schema.MeasureRow, 0, len(rows))
	first := make(map[rowKey]int)
	weight := make(map[rowKey]float64)
	marketSum := make(map[rowKey]float64)
	marketCount := make(map[rowKey]int)
	for _, r := range remapped {
		key := rowKey{strings.TrimSpace(r.HospitalID), schema.MeasureKey(r.Measure)}
		if !touched[key] {
			out = append(out, r)
			continue
		}
		if r.MarketExpected != 0 {
			marketSum[key] += r.MarketExpected
			marketCount[key]++
		}
		w := valueWeight(r)
		i, ok := first[key]
		if !ok {
			first[key] = len(out)
			weight[key] = w
			out = append(out, r)
			continue
		}

		m := &out[i]
		total := weight[key] + w
		m.Value = (m.Value*weight[key] + r.Value*w) / total
		weight[key] = total
		m.Numerator += r.Numerator
		m.Denominator += r.Denominator
		m.ExpectedNumerator += r.ExpectedNumerator
		if n := marketCount[key]; n > 0 {
			m.MarketExpected = marketSum[key] / float64(n)
		}
		if len(m.Thresholds) == 0 {
			m.Thresholds = r.Thresholds
		}
		if m.HospitalName == "" {
			m.HospitalName = r.HospitalName
		}
		if m.HospitalSize == "" {
			m.HospitalSize = r.HospitalSize
		}
	}
	return out
}

// valueWeight is the weight of a row's value in a merge.
func valueWeight(r schema.MeasureRow) float64 {
	if r.Denominator > 0 {
		return r.Denominator
	}
	return 1
}

// GroupHospitals groups rows per hospital in first-seen order.
// A hospital takes the first non-empty name and size found in its rows;
// hospitals with no size get defaultSize.
func GroupHospitals(rows []schema.MeasureRow, defaultSize schema.HospitalSize) ([]schema.HospitalInput, error) {
	var out []schema.HospitalInput
	index := make(map[string]int)
	for _, r := range rows {
		id := strings.TrimSpace(r.HospitalID)
		if id == "" {
			return nil, fmt.Errorf("row for measure %q has no hospital_id", r.Measure)
		}
		key := schema.MeasureKey(r.Measure)
		if key == "" {
			return nil, fmt.Errorf("row for hospital %s has no measure", id)
		}

		i, ok := index[id]
		if !ok {
			i = len(out)
			index[id] = i
			out = append(out, schema.HospitalInput{ID: id, Measures: make(map[string]schema.MeasureRow)})
		}
		h := &out[i]
		if h.Name == "" {
			h.Name = strings.TrimSpace(r.HospitalName)
		}
		if h.Size == "" && strings.TrimSpace(r.HospitalSize) != "" {
			h.Size = schema.ParseHospitalSize(r.HospitalSize)
		}
		if _, dup := h.Measures[key]; dup {
			return nil, fmt.Errorf("%w: hospital %s measure %s", ErrDuplicateRow, id, r.Measure)
		}
		h.Measures[key] = r
	}

	for i := range out {
		if out[i].Size == "" {
			out[i].Size = defaultSize
		}
		if out[i].Name == "" {
			out[i].Name = out[i].ID
		}
	}
	return out, nil
}

// SelectHospitals keeps the hospitals in ids, in the order given.
// An empty ids keeps all of them.
func SelectHospitals(all []schema.HospitalInput, ids []string) ([]schema.HospitalInput, []string) {
	if len(ids) == 0 {
		return all, nil
	}
	byID := make(map[string]schema.HospitalInput, len(all))
	for _, h := range all {
		byID[h.ID] = h
	}
	var out []schema.HospitalInput
	var missing []string
	for _, id := range ids {
		if h, ok := byID[id]; ok {
			out = append(out, h)
		} else {
			missing = append(missing, id)
		}
	}
	return out, missing
}
