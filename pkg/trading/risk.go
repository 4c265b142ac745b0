package trading

import "fmt"

// RiskMode selects the risk metric of the allocation math: standard
// deviation of returns, or the downside semi-deviation variant.
type RiskMode uint8

const (
	RiskModeSTD RiskMode = iota + 1
	RiskModeLSV
)

func (m RiskMode) String() string {
	switch m {
	case RiskModeSTD:
		return "STD"
	case RiskModeLSV:
		return "LSV"
	default:
		return fmt.Sprintf("RiskMode(%d)", uint8(m))
	}
}

// ParseRiskMode validates a risk mode received from the CLI or the wire.
func ParseRiskMode(code string) (RiskMode, error) {
	switch code {
	case "STD", "std":
		return RiskModeSTD, nil
	case "LSV", "lsv":
		return RiskModeLSV, nil
	default:
		return 0, fmt.Errorf("unknown risk mode [%v]", code)
	}
}
