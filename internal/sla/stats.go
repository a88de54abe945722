package sla

import "github.com/deskflow/helpdesk/internal/domain"

// Summary aggregates evaluations for dashboards.
type Summary struct {
	Total             int
	Active            int
	Overdue           int
	ByBand            map[Band]int
	ByLevel           map[domain.CriticalityLevel]int
	ResolvedWithinSLA int
	ResolvedLate      int
	// ComplianceRate is ResolvedWithinSLA over all resolved tickets with a known
	// resolution time, or zero when there are none.
	ComplianceRate float64
}

// Summarize folds evaluations into a Summary.
func Summarize(evals []Evaluation) Summary {
	s := Summary{
		ByBand:  make(map[Band]int, len(Bands)),
		ByLevel: make(map[domain.CriticalityLevel]int, len(domain.Levels)),
	}
	for _, ev := range evals {
		s.Total++
		s.ByBand[ev.Band]++
		s.ByLevel[ev.Level]++
		if ev.Terminal {
			if ev.MetSLA != nil {
				if *ev.MetSLA {
					s.ResolvedWithinSLA++
				} else {
					s.ResolvedLate++
				}
			}
			continue
		}
		s.Active++
		if ev.Overdue {
			s.Overdue++
		}
	}
	if resolved := s.ResolvedWithinSLA + s.ResolvedLate; resolved > 0 {
		s.ComplianceRate = float64(s.ResolvedWithinSLA) / float64(resolved)
	}
	return s
}
