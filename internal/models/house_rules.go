// internal/models/house_rules.go
package models

import "fmt"

// HouseRules holds the per-room rule variants and timers.
type HouseRules struct {
	DrawStacking          bool `json:"drawStacking"`          // allow chaining draw2/wild4 onto a pending draw
	RestrictWildDrawFour  bool `json:"restrictWildDrawFour"`  // wild4 only legal without a card of the current color
	UnoPenaltyCards       int  `json:"unoPenaltyCards"`       // cards drawn when caught without calling UNO
	TurnTimeoutSec        int  `json:"turnTimeoutSec"`        // 0 disables the turn timer
	ColorChoiceTimeoutSec int  `json:"colorChoiceTimeoutSec"` // 0 disables the color choice timer
	DisconnectGraceSec    int  `json:"disconnectGraceSec"`    // wait before a dropped connection counts as absent
	HandSize              int  `json:"handSize"`
}

// DefaultHouseRules returns the standard rule set.
func DefaultHouseRules() HouseRules {
	return HouseRules{
		UnoPenaltyCards:       2,
		TurnTimeoutSec:        30,
		ColorChoiceTimeoutSec: 15,
		DisconnectGraceSec:    10,
		HandSize:              7,
	}
}

// Update applies a partial rule update. Keys that are absent or null keep
// their current value. Nothing is changed if any key fails validation.
func (rules *HouseRules) Update(newRules map[string]interface{}) error {
	next := *rules

	assignBool := func(field *bool, key string) error {
		val, exists := newRules[key]
		if !exists || val == nil {
			return nil
		}
		b, ok := val.(bool)
		if !ok {
			return fmt.Errorf("invalid type for %s", key)
		}
		*field = b
		return nil
	}

	assignInt := func(field *int, key string, minVal, maxVal int) error {
		val, exists := newRules[key]
		if !exists || val == nil {
			return nil
		}
		var n int
		switch v := val.(type) {
		case float64:
			if v != float64(int(v)) {
				return fmt.Errorf("%s must be a whole number", key)
			}
			n = int(v)
		case int:
			n = v
		default:
			return fmt.Errorf("invalid type for %s", key)
		}
		if n < minVal || n > maxVal {
			return fmt.Errorf("%s must be between %d and %d", key, minVal, maxVal)
		}
		*field = n
		return nil
	}

	if err := assignBool(&next.DrawStacking, "drawStacking"); err != nil {
		return err
	}
	if err := assignBool(&next.RestrictWildDrawFour, "restrictWildDrawFour"); err != nil {
		return err
	}
	if err := assignInt(&next.UnoPenaltyCards, "unoPenaltyCards", 1, 10); err != nil {
		return err
	}
	if err := assignInt(&next.TurnTimeoutSec, "turnTimeoutSec", 0, 600); err != nil {
		return err
	}
	if err := assignInt(&next.ColorChoiceTimeoutSec, "colorChoiceTimeoutSec", 0, 600); err != nil {
		return err
	}
	if err := assignInt(&next.DisconnectGraceSec, "disconnectGraceSec", 0, 600); err != nil {
		return err
	}
	if err := assignInt(&next.HandSize, "handSize", 1, 10); err != nil {
		return err
	}

	*rules = next
	return nil
}
