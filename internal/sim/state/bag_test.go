package state

import "testing"

func TestBag_AddSaturates(t *testing.T) {
	b := Bag{Wood: MaxStock - 3}
	b.Add(Wood, 2)
	if b[Wood] != MaxStock-1 {
		t.Fatalf("wood=%d", b[Wood])
	}
	for i := 0; i < 3; i++ {
		b.Add(Wood, MaxAmount)
	}
	if b[Wood] != MaxStock {
		t.Fatalf("wood=%d want %d", b[Wood], MaxStock)
	}
	b.Add(Wood, -5)
	if b[Wood] != MaxStock {
		t.Fatalf("negative add changed wood to %d", b[Wood])
	}
}

func TestBag_PayNeverPartial(t *testing.T) {
	b := Bag{Wood: 10, Rock: 2}
	if b.Pay(Bag{Wood: 5, Rock: 3}) {
		t.Fatalf("paid without enough rock")
	}
	if b[Wood] != 10 || b[Rock] != 2 {
		t.Fatalf("failed pay mutated bag: %v", b)
	}
	if !b.Pay(Bag{Wood: 5, Rock: 2}) || b[Wood] != 5 || b[Rock] != 0 {
		t.Fatalf("pay: %v", b)
	}
}
