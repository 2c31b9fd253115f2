package domain

import (
	"fmt"
	"slices"
	"time"
)

// Milestone is a named place on the road from Bag End to Mount Doom.
// Distance is measured in kilometers from Bag End.
type Milestone struct {
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
	Quote    string  `json:"quote"`
}

// PacePoint is how far Frodo had walked, in kilometers, a number of days
// after setting out.
type PacePoint struct {
	Day      int     `json:"day"`
	Distance float64 `json:"distance"`
	Label    string  `json:"label"`
}

// Route distances are charted in miles.
var route = milesToKmMilestones([]Milestone{
	{"Bag End", 0, "The journey begins. One small step for a Hobbit."},
	{"The Green Dragon", 2, "One last pint before the edge of the wild."},
	{"Edge of Farmer Maggot's Field", 5, "Avoiding Farmer Maggot's wrath."},
	{"Three-Farthing Stone", 7, "The center point of the Shire."},
	{"Woody End", 16, "Hiding from the first Black Rider."},
	{"Bucklebury Ferry", 26, "Crossing the Brandywine River."},
	{"Tom Bombadil's House", 63, "A safe haven in the Old Forest."},
	{"Barrow-downs", 85, "Fog on the barrow-downs. Danger awaits."},
	{"Bree (Prancing Pony)", 135, "Meeting Strider in the common room."},
	{"Midgewater Marshes", 145, "But what about second breakfast?"},
	{"Weathertop", 198, "The attack of the Nazgûl."},
	{"The Last Bridge", 263, "Crossing the River Hoarwell."},
	{"The Stone Trolls", 308, "Bert, Tom, and William (turned to stone)."},
	{"Ford of Bruinen", 397, "The flood washes the Ringwraiths away."},
	{"Rivendell", 458, "The Fellowship is formed."},
	{"Hollin Ridge", 585, "Wargs howl in the distance."},
	{"Redhorn Pass", 633, "Defeated by the snows of Caradhras."},
	{"Moria (West Gate)", 760, "The Watcher in the Water attacks."},
	{"Moria (Durin's Bridge)", 800, "You shall not pass!"},
	{"Dimrill Dale", 805, "Mourning Gandalf outside the East Gate."},
	{"Lothlórien (Caras Galadhon)", 920, "The Lady Galadriel's mirror."},
	{"The Great River", 1000, "Paddling down the Anduin."},
	{"The Brown Lands", 1100, "Desolate lands stripped by Sauron long ago."},
	{"The Argonath", 1190, "The Pillars of Kings."},
	{"Falls of Rauros", 1309, "The Fellowship breaks; Boromir falls."},
	{"Emyn Muil", 1329, "Lost in the razor-sharp rocks. Met Gollum."},
	{"The Dead Marshes", 1400, "Faces in the water."},
	{"The Black Gate", 1550, "The gate is shut. You must find another way."},
	{"Henneth Annûn", 1615, "Faramir's secret hideout."},
	{"The Cross-roads", 1650, "The fallen statue of the King."},
	{"Minas Morgul", 1660, "The witch-king leads his army out."},
	{"Cirith Ungol Stairs", 1675, "Climbing the vertical stairs."},
	{"Shelob's Lair", 1680, "Stung by the spider. Sam fights back."},
	{"Tower of Cirith Ungol", 1690, "Sam rescues Frodo from the orcs."},
	{"The Isenmouthe", 1740, "Dodging orc armies on the road to Doom."},
	{"Mount Doom", 1784, "The Ring is destroyed."},
})

// Frodo's own pace, in miles, from Sept 23 onwards. Rivendell and Lothlórien
// are long rests.
var frodoPace = milesToKmPace([]PacePoint{
	{0, 0, "Start (Sept 23)"},
	{2, 26, "Bucklebury Ferry"},
	{6, 135, "Bree"},
	{13, 198, "Weathertop"},
	{21, 308, "Stone Trolls"},
	{27, 397, "Ford of Bruinen"},
	{28, 458, "Rivendell (Arrive)"},
	{93, 458, "Rivendell (Depart Dec 25)"},
	{107, 585, "Hollin Ridge"},
	{111, 633, "Redhorn Pass"},
	{112, 760, "Moria West Gate"},
	{114, 805, "Dimrill Dale"},
	{116, 920, "Lothlórien (Arrive)"},
	{146, 920, "Lothlórien (Depart Feb 16)"},
	{151, 1100, "The Brown Lands"},
	{155, 1190, "The Argonath"},
	{156, 1309, "Falls of Rauros"},
	{159, 1329, "Emyn Muil"},
	{162, 1400, "The Dead Marshes"},
	{164, 1550, "The Black Gate"},
	{166, 1615, "Henneth Annûn"},
	{168, 1660, "Minas Morgul"},
	{170, 1680, "Shelob's Lair"},
	{171, 1690, "Tower of Cirith Ungol"},
	{178, 1740, "The Isenmouthe"},
	{185, 1784, "Mount Doom"},
})

func milesToKmMilestones(ms []Milestone) []Milestone {
	for i := range ms {
		ms[i].Distance = ConvertDistance(ms[i].Distance, Miles, Kilometers)
	}
	return ms
}

func milesToKmPace(ps []PacePoint) []PacePoint {
	for i := range ps {
		ps[i].Distance = ConvertDistance(ps[i].Distance, Miles, Kilometers)
	}
	return ps
}

// Route returns the milestones in order from Bag End.
func Route() []Milestone {
	return slices.Clone(route)
}

// FrodoPace returns Frodo's day-by-day progress table.
func FrodoPace() []PacePoint {
	return slices.Clone(frodoPace)
}

// JourneyLength is the distance from Bag End to Mount Doom in kilometers.
func JourneyLength() float64 {
	return route[len(route)-1].Distance
}

// CurrentMilestone returns the last milestone reached after totalKm.
func CurrentMilestone(totalKm float64) Milestone {
	current := route[0]
	for _, m := range route[1:] {
		if m.Distance > totalKm {
			break
		}
		current = m
	}
	return current
}

// NextMilestone returns the first milestone beyond totalKm. ok is false once
// Mount Doom is reached.
func NextMilestone(totalKm float64) (next Milestone, ok bool) {
	for _, m := range route {
		if m.Distance > totalKm {
			return m, true
		}
	}
	return Milestone{}, false
}

// Progress is the completed fraction of the journey, between 0 and 1.
func Progress(totalKm float64) float64 {
	return min(max(totalKm/JourneyLength(), 0), 1)
}

// FrodoDistance is how far Frodo had walked after day days, interpolated
// linearly between the points of his pace table.
func FrodoDistance(day int) float64 {
	if day <= 0 {
		return 0
	}
	for i := 1; i < len(frodoPace); i++ {
		a, b := frodoPace[i-1], frodoPace[i]
		if day <= b.Day {
			frac := float64(day-a.Day) / float64(b.Day-a.Day)
			return a.Distance + frac*(b.Distance-a.Distance)
		}
	}
	return frodoPace[len(frodoPace)-1].Distance
}

// DaysBetween counts whole calendar days from start to end, both
// YYYY-MM-DD. It is negative when end comes first.
func DaysBetween(start, end string) (int, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return 0, fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidEntry, start)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return 0, fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidEntry, end)
	}
	return int(e.Sub(s).Hours() / 24), nil
}
