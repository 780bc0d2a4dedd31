package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/talgya/tilecity/internal/city"
	"github.com/talgya/tilecity/internal/engine"
	"github.com/talgya/tilecity/internal/persistence"
)

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func money(v int64) string {
	if v < 0 {
		return "-$" + humanize.Comma(-v)
	}
	return "$" + humanize.Comma(v)
}

func printReports(w io.Writer, reps []engine.MonthlyReport) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "month\trevenue\tupkeep\thazards\ttreasury\tpopulation\t")
	for _, r := range reps {
		note := ""
		if r.Bankrupt {
			note = "bankrupt, reset"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Month, money(r.Revenue), money(r.Maintenance), money(r.HazardLosses),
			money(r.Treasury), humanize.Comma(int64(r.Population)), note)
	}
	tw.Flush()
}

func printSummary(w io.Writer, st *engine.State, reps []engine.MonthlyReport) {
	bankruptcies := 0
	for _, r := range reps {
		if r.Bankrupt {
			bankruptcies++
		}
	}
	g := st.Grid
	c := st.Civic

	fmt.Fprintf(w, "\nCity %s after %d months (%s, %s)\n", shortID(st.CityID), st.Month, st.Config.MapSize, st.Config.Difficulty)
	fmt.Fprintf(w, "  Treasury    %s\n", money(st.Treasury))
	fmt.Fprintf(w, "  Population  %s\n", humanize.Comma(int64(st.Population)))
	fmt.Fprintf(w, "  Comfort     %d\n", st.Comfort)
	if bankruptcies > 0 {
		fmt.Fprintf(w, "  Bankrupt    %d times\n", bankruptcies)
	}
	fmt.Fprintf(w, "  Buildings   %d roads, %d residential, %d commercial, %d industrial\n",
		g.Count(city.Road), g.Count(city.Residential), g.Count(city.Commercial), g.Count(city.Industrial))
	fmt.Fprintf(w, "  Services    security %.0f  safety %.0f  education %.0f  medical %.0f\n",
		c.Security, c.Safety, c.Education, c.Medical)
	fmt.Fprintf(w, "  Supply      power %.0f%%  water %.0f%%\n", c.PowerSupplyRate, c.WaterSupplyRate)
	fmt.Fprintf(w, "  Demand      R %d  C %d  I %d\n", c.ResidentialDemand, c.CommercialDemand, c.IndustrialDemand)
	if st.Config.Pollution || st.Config.Slum {
		fmt.Fprintf(w, "  Hazards     pollution %.0f  slum rate %.0f%%\n", c.PollutionGlobal, c.SlumRateGlobal)
	}
}

func printSlots(w io.Writer, slots []persistence.SlotInfo) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SLOT\tSAVED\tCITY\tMONTH\tPOPULATION\tTREASURY")
	for _, s := range slots {
		if s.Empty {
			fmt.Fprintf(tw, "%d\t(empty)\t\t\t\t\n", s.Slot)
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\n",
			s.Slot, humanize.Time(s.SavedAt), shortID(s.CityID), s.Month,
			humanize.Comma(int64(s.Population)), money(s.Treasury))
	}
	tw.Flush()
}
