package model

import "testing"

func TestTicketLabel(t *testing.T) {
    tk := Ticket{RaffleID: 7, Number: 3}
    if got := tk.Label(); got != "7-0003" {
        t.Errorf("Label() = %q, want %q", got, "7-0003")
    }
    if tk.Owned() {
        t.Error("ticket without owner must not be owned")
    }
    owner := uint64(42)
    tk.OwnerID = &owner
    if !tk.Owned() {
        t.Error("ticket with owner must be owned")
    }
}
