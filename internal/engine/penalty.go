package engine

import "math"

// derivePenalties turns supply and service deficits into the growth and
// revenue multipliers plus the hazard and comfort amplifiers the next
// passes read.
func (s *Simulation) derivePenalties() {
	st := s.State
	c := &st.Civic
	pt := s.tuning.Penalty
	m := &st.Modifiers

	growth, revenue := 1.0, 1.0
	m.FireAmplifier = 1
	m.DiseaseAmplifier = 1
	m.UnwateredAmplifier = 1
	m.ServiceComfort = 1

	if sh := shortfall(c.PowerSupplyRate, pt.SupplyThreshold); sh > 0 {
		growth *= math.Max(0.6, 1-sh*0.4)
		revenue *= math.Max(0.8, 1-sh*0.2)
	}
	if sh := shortfall(c.WaterSupplyRate, pt.SupplyThreshold); sh > 0 {
		growth *= math.Max(0.3, 1-sh*0.7)
		revenue *= math.Max(0.7, 1-sh*0.3)
		m.UnwateredAmplifier = pt.HazardAmplifier
	}
	if d := shortfall(c.Security, pt.ServiceThreshold); d > 0 {
		growth *= math.Max(0.5, 1-d*0.5)
	}
	if d := shortfall(c.Safety, pt.ServiceThreshold); d > 0 {
		m.FireAmplifier = pt.HazardAmplifier
	}
	if d := shortfall(c.Education, pt.ServiceThreshold); d > 0 {
		growth *= math.Max(0.6, 1-d*0.4)
		revenue *= math.Max(0.85, 1-d*0.15)
	}
	if d := shortfall(c.Medical, pt.ServiceThreshold); d > 0 {
		m.DiseaseAmplifier = pt.MedicalAmplifier
		m.ServiceComfort = math.Max(0.5, 1-d*0.5)
	}

	c.GrowthPenalty = growth
	c.RevenuePenalty = revenue
}

// shortfall returns (threshold-v)/threshold when v is below threshold, else 0.
func shortfall(v, threshold float64) float64 {
	if threshold <= 0 || v >= threshold {
		return 0
	}
	return (threshold - v) / threshold
}
