// internal/models/card.go
package models

import (
	"encoding/json"
	"fmt"
)

// CardKind identifies the face of a card.
type CardKind string

const (
	KindNumber  CardKind = "number"
	KindSkip    CardKind = "skip"
	KindReverse CardKind = "reverse"
	KindDraw2   CardKind = "draw2"
	KindWild    CardKind = "wild"
	KindWild4   CardKind = "wild4"
)

// Color is a card color. Wild cards carry ColorNone.
type Color string

const (
	ColorRed    Color = "red"
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorNone   Color = "none"
)

// Colors lists the playable colors in tie-break priority order.
var Colors = []Color{ColorRed, ColorBlue, ColorGreen, ColorYellow}

// Valid reports whether c is one of the four playable colors.
func (c Color) Valid() bool {
	switch c {
	case ColorRed, ColorBlue, ColorGreen, ColorYellow:
		return true
	}
	return false
}

// Card is an immutable card value. Number is only meaningful for KindNumber.
type Card struct {
	Kind   CardKind
	Color  Color
	Number int
}

// IsWild reports whether the card is a wild or wild draw four.
func (c Card) IsWild() bool {
	return c.Kind == KindWild || c.Kind == KindWild4
}

// DrawPenalty returns how many cards the card adds to a pending draw.
func (c Card) DrawPenalty() int {
	switch c.Kind {
	case KindDraw2:
		return 2
	case KindWild4:
		return 4
	}
	return 0
}

func (c Card) String() string {
	if c.Kind == KindNumber {
		return fmt.Sprintf("%s %d", c.Color, c.Number)
	}
	if c.IsWild() {
		return string(c.Kind)
	}
	return fmt.Sprintf("%s %s", c.Color, c.Kind)
}

type cardJSON struct {
	Kind   CardKind `json:"kind"`
	Color  Color    `json:"color"`
	Number *int     `json:"number,omitempty"`
}

// MarshalJSON omits the number field for non-number cards.
func (c Card) MarshalJSON() ([]byte, error) {
	out := cardJSON{Kind: c.Kind, Color: c.Color}
	if c.Kind == KindNumber {
		n := c.Number
		out.Number = &n
	}
	return json.Marshal(out)
}

func (c *Card) UnmarshalJSON(data []byte) error {
	var in cardJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	c.Kind = in.Kind
	c.Color = in.Color
	c.Number = 0
	if in.Kind == KindNumber {
		if in.Number == nil || *in.Number < 0 || *in.Number > 9 {
			return fmt.Errorf("number card requires a number between 0 and 9")
		}
		c.Number = *in.Number
	}
	return nil
}
