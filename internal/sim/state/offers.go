package state

type Terms struct {
	Type   Resource `json:"type"`
	Amount int      `json:"amount"`
}

func (t Terms) Bag() Bag { return Bag{t.Type: t.Amount} }

type TradeOffer struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Give Terms  `json:"give"`
	Want Terms  `json:"want"`
	TS   int64  `json:"ts"`
}

type VisitKind string

const (
	VisitTrader VisitKind = "trader"
	VisitSpy    VisitKind = "spy"
	VisitRobber VisitKind = "robber"
)

func ParseVisitKind(s string) (VisitKind, bool) {
	switch VisitKind(s) {
	case VisitTrader, VisitSpy, VisitRobber:
		return VisitKind(s), true
	}
	return "", false
}

type Visit struct {
	ID          string    `json:"id"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Kind        VisitKind `json:"kind"`
	DisguisedAs VisitKind `json:"disguisedAs"`
	TS          int64     `json:"ts"`
}

type MercenaryRaid struct {
	Hirer  string `json:"hirer"`
	Target string `json:"target"`
	Season Season `json:"season"`
}
