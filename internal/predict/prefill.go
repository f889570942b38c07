package predict

import "sort"

// DraftSet is a set being entered for a new workout. Nil fields are blank.
type DraftSet struct {
	SetNumber int      `json:"set_number"`
	Weight    *float64 `json:"weight"`
	Reps      *int     `json:"reps"`
}

// Prefill fills blank draft fields from preds. Values the user already
// entered are kept. A draft with SetNumber 0 is numbered by its position.
// The input slice is not modified.
func Prefill(drafts []DraftSet, preds map[int]Prediction) []DraftSet {
	out := make([]DraftSet, len(drafts))
	for i, d := range drafts {
		if d.SetNumber <= 0 {
			d.SetNumber = i + 1
		}
		if pred, ok := preds[d.SetNumber]; ok {
			if d.Weight == nil && pred.Weight != nil {
				w := *pred.Weight
				d.Weight = &w
			}
			if d.Reps == nil && pred.Reps != nil {
				r := *pred.Reps
				d.Reps = &r
			}
		}
		out[i] = d
	}
	return out
}

// Sorted returns preds ordered by set number.
func Sorted(preds map[int]Prediction) []Prediction {
	out := make([]Prediction, 0, len(preds))
	for _, p := range preds {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SetNumber < out[j].SetNumber })
	return out
}
