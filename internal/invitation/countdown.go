package invitation

import (
	"fmt"
	"time"
)

// Countdown is the time left until the ceremony
type Countdown struct {
	Days    int  `json:"days"`
	Hours   int  `json:"hours"`
	Minutes int  `json:"minutes"`
	Seconds int  `json:"seconds"`
	Married bool `json:"married"`
}

// CountdownTo splits the time between now and the ceremony into whole units.
// Once the ceremony has started the countdown reports Married.
func CountdownTo(now, ceremony time.Time) Countdown {
	d := ceremony.Sub(now)
	if d < 0 {
		return Countdown{Married: true}
	}

	day := 24 * time.Hour
	return Countdown{
		Days:    int(d / day),
		Hours:   int(d % day / time.Hour),
		Minutes: int(d % time.Hour / time.Minute),
		Seconds: int(d % time.Minute / time.Second),
	}
}

func (c Countdown) String() string {
	if c.Married {
		return "We're Married!"
	}
	return fmt.Sprintf("%02d days %02d:%02d:%02d", c.Days, c.Hours, c.Minutes, c.Seconds)
}
