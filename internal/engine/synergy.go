package engine

import "github.com/talgya/tilecity/internal/city"

// applySynergies adds proximity bonuses between facilities. Pair bonuses
// stack once per qualifying pair; the station triple bonus applies once per
// station that has both a school and a police station within reach.
func (s *Simulation) applySynergies() {
	g := s.State.Grid
	sy := s.tuning.Synergy
	c := &s.State.Civic

	police := centersOf(g, city.Police)
	schools := centersOf(g, city.School)
	hospitals := centersOf(g, city.Hospital)
	stations := centersOf(g, city.Station)

	for _, p := range police {
		for _, sc := range schools {
			if city.Manhattan(p, sc) <= sy.PairDistance {
				c.Security += sy.PoliceSchoolSecurity
				c.Education += sy.PoliceSchoolEducation
			}
		}
	}
	for _, sc := range schools {
		for _, h := range hospitals {
			if city.Manhattan(sc, h) <= sy.PairDistance {
				c.Education += sy.SchoolHospitalEducation
				c.Medical += sy.SchoolHospitalMedical
			}
		}
	}
	for _, st := range stations {
		if anyWithin(st, schools, sy.TripleDistance) && anyWithin(st, police, sy.TripleDistance) {
			c.Education += sy.TripleEducation
		}
	}

	c.clamp()
}

// centersOf returns the footprint center of every k building.
func centersOf(g *city.Grid, k city.Kind) []city.Point {
	origins := g.BuildingsOf(k)
	for i, o := range origins {
		origins[i] = buildingCenter(o, k)
	}
	return origins
}

func anyWithin(p city.Point, pts []city.Point, d int) bool {
	for _, q := range pts {
		if city.Manhattan(p, q) <= d {
			return true
		}
	}
	return false
}
