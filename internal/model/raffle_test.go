package model

import "testing"

func TestStatusTransitions(t *testing.T) {
    cases := []struct {
        from, to Status
        ok       bool
    }{
        {StatusDraft, StatusComingSoon, true},
        {StatusDraft, StatusActive, true},
        {StatusDraft, StatusCancelled, true},
        {StatusDraft, StatusEnded, false},
        {StatusComingSoon, StatusActive, true},
        {StatusComingSoon, StatusEnded, true},
        {StatusActive, StatusSoldOut, true},
        {StatusSoldOut, StatusActive, true},
        {StatusActive, StatusPaused, true},
        {StatusPaused, StatusActive, true},
        {StatusPaused, StatusComingSoon, true},
        {StatusPaused, StatusEnded, false},
        {StatusActive, StatusEnded, true},
        {StatusSoldOut, StatusEnded, true},
        {StatusActive, StatusCancelled, true},
        {StatusActive, StatusActive, false},
        {StatusEnded, StatusActive, false},
        {StatusEnded, StatusCancelled, false},
        {StatusCancelled, StatusActive, false},
        {StatusCancelled, StatusEnded, false},
    }
    for _, c := range cases {
        if got := c.from.CanTransition(c.to); got != c.ok {
            t.Errorf("CanTransition(%s -> %s) = %v, want %v", c.from, c.to, got, c.ok)
        }
    }
}

func TestStatusTerminal(t *testing.T) {
    for _, s := range []Status{StatusDraft, StatusComingSoon, StatusActive, StatusSoldOut, StatusPaused} {
        if s.Terminal() {
            t.Errorf("%s should not be terminal", s)
        }
    }
    for _, s := range []Status{StatusEnded, StatusCancelled} {
        if !s.Terminal() {
            t.Errorf("%s should be terminal", s)
        }
        if len(transitions[s]) != 0 {
            t.Errorf("%s must have no outgoing edges", s)
        }
    }
}

func TestStatusValid(t *testing.T) {
    if !StatusSoldOut.Valid() {
        t.Error("SOLD_OUT should be valid")
    }
    if Status("ARCHIVED").Valid() {
        t.Error("unknown status should not be valid")
    }
}
