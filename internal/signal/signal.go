// Package signal standardizes the records shared between the scan pipeline and notification layers.
package signal

// Zone is the direction a signal points.
type Zone int

const (
	ZoneLong Zone = iota
	ZoneShort
)

func (z Zone) String() string {
	switch z {
	case ZoneLong:
		return "LONG"
	case ZoneShort:
		return "SHORT"
	default:
		return "UNKNOWN"
	}
}

// Signal is one qualifying symbol from a scan pass. Immutable once created.
type Signal struct {
	Symbol     string
	Zone       Zone
	RSI        float64 // [0, 100]
	Volatility float64 // percent range of the recent window
	Price      float64 // latest close
}
