package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"journey/internal/app"
	"journey/internal/domain"
)

// entryView is a log entry expressed in the preferred unit.
type entryView struct {
	ID       int64       `json:"id"`
	Date     string      `json:"date"`
	Distance float64     `json:"distance"`
	Unit     domain.Unit `json:"unit"`
	Note     string      `json:"note,omitempty"`
}

func newEntryView(e domain.LogEntry, unit domain.Unit) entryView {
	return entryView{
		ID:       e.ID,
		Date:     e.Date,
		Distance: roundDistance(domain.ConvertDistance(e.Distance, domain.Kilometers, unit)),
		Unit:     unit,
		Note:     e.Note,
	}
}

func (v entryView) String() string {
	s := fmt.Sprintf("%d  %s  %s %s", v.ID, v.Date, formatDistance(v.Distance), v.Unit)
	if v.Note != "" {
		s += "  " + v.Note
	}
	return s
}

type listView struct {
	Unit    domain.Unit `json:"unit"`
	Entries []entryView `json:"entries"`
}

func (v listView) String() string {
	if len(v.Entries) == 0 {
		return "No entries yet."
	}
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tDATE\tDISTANCE (%s)\tNOTE\n", v.Unit)
	for _, e := range v.Entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.ID, e.Date, formatDistance(e.Distance), e.Note)
	}
	tw.Flush()
	return strings.TrimRight(b.String(), "\n")
}

type statusView struct {
	Entries   int            `json:"entries"`
	Total     float64        `json:"totalDistance"`
	Unit      domain.Unit    `json:"unit"`
	StartDate string         `json:"startDate"`
	Journey   journeyView    `json:"journey"`
	Account   string         `json:"account,omitempty"`
	Server    string         `json:"server,omitempty"`
	Sync      app.SyncStatus `json:"sync"`
	Pending   bool           `json:"pending"`
}

func (v statusView) String() string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Entries:\t%d\n", v.Entries)
	fmt.Fprintf(tw, "Total:\t%s %s\n", formatDistance(v.Total), v.Unit)
	fmt.Fprintf(tw, "Since:\t%s\n", v.StartDate)
	fmt.Fprintf(tw, "Reached:\t%s (%s%%)\n", v.Journey.Reached, formatDistance(v.Journey.Percent))
	if v.Journey.Next != "" {
		fmt.Fprintf(tw, "Next:\t%s in %s %s\n", v.Journey.Next, formatDistance(v.Journey.NextIn), v.Unit)
	} else {
		fmt.Fprintf(tw, "Next:\tThe Ring is destroyed.\n")
	}
	fmt.Fprintf(tw, "Frodo by day %d:\t%s %s\n", v.Journey.Day, formatDistance(v.Journey.Frodo), v.Unit)
	if v.Account != "" {
		fmt.Fprintf(tw, "Account:\t%s @ %s\n", v.Account, v.Server)
	} else {
		fmt.Fprintf(tw, "Account:\t(local only)\n")
	}
	fmt.Fprintf(tw, "Sync:\t%s\n", v.Sync)
	tw.Flush()
	return strings.TrimRight(b.String(), "\n")
}

// journeyView places the total on the road to Mount Doom. Distances are in
// the preferred unit.
type journeyView struct {
	Reached string  `json:"reached"`
	Quote   string  `json:"quote"`
	Next    string  `json:"next,omitempty"`
	NextIn  float64 `json:"nextIn,omitempty"`
	Percent float64 `json:"percent"`
	Day     int     `json:"day"`
	Frodo   float64 `json:"frodoDistance"`
}

func newJourneyView(totalKm float64, startDate, today string, unit domain.Unit) journeyView {
	current := domain.CurrentMilestone(totalKm)
	v := journeyView{
		Reached: current.Name,
		Quote:   current.Quote,
		Percent: roundDistance(domain.Progress(totalKm) * 100),
	}
	if next, ok := domain.NextMilestone(totalKm); ok {
		v.Next = next.Name
		v.NextIn = roundDistance(domain.ConvertDistance(next.Distance-totalKm, domain.Kilometers, unit))
	}
	// StartDate is today or an earlier validated entry date.
	if day, err := domain.DaysBetween(startDate, today); err == nil {
		v.Day = max(day, 0)
	}
	v.Frodo = roundDistance(domain.ConvertDistance(domain.FrodoDistance(v.Day), domain.Kilometers, unit))
	return v
}

type syncView struct {
	Account string         `json:"account"`
	Status  app.SyncStatus `json:"status"`
	Entries int            `json:"entries"`
}

func (v syncView) String() string {
	if v.Status == app.StatusPending {
		return fmt.Sprintf("Sync pending for %s; changes are kept locally.", v.Account)
	}
	return fmt.Sprintf("Synced %d entries for %s.", v.Entries, v.Account)
}

type exportView struct {
	File    string `json:"file,omitempty"`
	Entries int    `json:"entries"`
}

func (v exportView) String() string {
	return fmt.Sprintf("Exported %d entries to %s", v.Entries, v.File)
}

func roundDistance(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func formatDistance(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
