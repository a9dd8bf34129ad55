package statcontext

import "github.com/sawpanic/regimescope/internal/indicator"

func lastScalar(s indicator.Series) (float64, bool) {
	for i := len(s.Data) - 1; i >= 0; i-- {
		if s.Data[i].Value != nil {
			return *s.Data[i].Value, true
		}
	}
	return 0, false
}

func lastField(s indicator.Series, field string) (float64, bool) {
	for i := len(s.Data) - 1; i >= 0; i-- {
		if v, ok := s.Data[i].Values[field]; ok {
			return v, true
		}
	}
	return 0, false
}
