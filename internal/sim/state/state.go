package state

import "strings"

type Age string

const (
	AgeWood   Age = "Wood"
	AgeStone  Age = "Stone"
	AgeModern Age = "Modern"
)

// Ages in progression order.
var Ages = []Age{AgeWood, AgeStone, AgeModern}

func (a Age) Index() int {
	for i, x := range Ages {
		if x == a {
			return i
		}
	}
	return -1
}

// Next returns the age after a, or false when a is the final age.
func (a Age) Next() (Age, bool) {
	i := a.Index()
	if i < 0 || i+1 >= len(Ages) {
		return a, false
	}
	return Ages[i+1], true
}

func (a Age) IsFinal() bool { return a.Index() == len(Ages)-1 }

type Resource string

const (
	Wood  Resource = "wood"
	Rock  Resource = "rock"
	Metal Resource = "metal"
	Food  Resource = "food"
	Coins Resource = "coins"
)

var Resources = []Resource{Wood, Rock, Metal, Food, Coins}

// Gatherables are the resources a gather action can produce.
var Gatherables = []Resource{Wood, Rock, Metal, Food}

func ParseResource(s string) (Resource, bool) {
	r := Resource(strings.ToLower(strings.TrimSpace(s)))
	for _, x := range Resources {
		if x == r {
			return r, true
		}
	}
	return "", false
}

func (r Resource) Gatherable() bool {
	for _, x := range Gatherables {
		if x == r {
			return true
		}
	}
	return false
}

type Season string

const (
	Spring Season = "Spring"
	Summer Season = "Summer"
	Autumn Season = "Autumn"
	Winter Season = "Winter"
)

var Seasons = []Season{Spring, Summer, Autumn, Winter}

// SeasonOfMonth maps an absolute month counter onto the northern calendar:
// Mar-May spring, Jun-Aug summer, Sep-Nov autumn, Dec-Feb winter.
func SeasonOfMonth(monthIndex int) Season {
	m := monthIndex % 12
	if m < 0 {
		m += 12
	}
	switch {
	case m >= 2 && m <= 4:
		return Spring
	case m >= 5 && m <= 7:
		return Summer
	case m >= 8 && m <= 10:
		return Autumn
	default:
		return Winter
	}
}

// NextSeason is the season that follows s in the yearly cycle.
func NextSeason(s Season) Season {
	for i, x := range Seasons {
		if x == s {
			return Seasons[(i+1)%len(Seasons)]
		}
	}
	return Spring
}
