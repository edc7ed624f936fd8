package model

import (
	"strconv"
	"strings"
)

// ArmedState is the panel's alarm posture.
type ArmedState int

const (
	ArmedUnknown ArmedState = iota
	Disarmed
	ArmedStay
	ArmedAway
	ArmingStayExitDelay
	ArmingAwayExitDelay
	ArmedStayEntryDelay
	ArmedAwayEntryDelay
	Alarm
	AlarmFire
	Disabled
	WalkTest
)

func (s ArmedState) String() string {
	switch s {
	case Disarmed:
		return "DISARMED"
	case ArmedStay:
		return "ARMED_STAY"
	case ArmedAway:
		return "ARMED_AWAY"
	case ArmingStayExitDelay:
		return "ARMING_STAY_IN_EXIT_DELAY"
	case ArmingAwayExitDelay:
		return "ARMING_AWAY_IN_EXIT_DELAY"
	case ArmedStayEntryDelay:
		return "ARMED_STAY_IN_ENTRY_DELAY"
	case ArmedAwayEntryDelay:
		return "ARMED_AWAY_IN_ENTRY_DELAY"
	case Alarm:
		return "ALARM"
	case AlarmFire:
		return "ALARM_FIRE"
	case Disabled:
		return "DISABLED"
	case WalkTest:
		return "WALK_TEST"
	default:
		return "UNKNOWN"
	}
}

// intToArmedState mirrors the upstream's own IntEnum values, not an
// arbitrary ordinal assignment: 0=disarmed, 1/2=mid-arming exit delay,
// 3/4=armed stay/away, 5/6=mid-disarming entry delay, 7/8=alarm states,
// 11=disabled, 12=walk test.
var intToArmedState = map[int]ArmedState{
	0:  Disarmed,
	1:  ArmingStayExitDelay,
	2:  ArmingAwayExitDelay,
	3:  ArmedStay,
	4:  ArmedAway,
	5:  ArmedStayEntryDelay,
	6:  ArmedAwayEntryDelay,
	7:  Alarm,
	8:  AlarmFire,
	11: Disabled,
	12: WalkTest,
}

var labelToArmedState = map[string]ArmedState{
	"DISARMED":                  Disarmed,
	"ARMED_STAY":                ArmedStay,
	"ARMED STAY":                ArmedStay,
	"ARMED_AWAY":                ArmedAway,
	"ARMED AWAY":                ArmedAway,
	"ARMING_STAY_IN_EXIT_DELAY": ArmingStayExitDelay,
	"ARMING_AWAY_IN_EXIT_DELAY": ArmingAwayExitDelay,
	"ARMED_STAY_IN_ENTRY_DELAY": ArmedStayEntryDelay,
	"ARMED_AWAY_IN_ENTRY_DELAY": ArmedAwayEntryDelay,
	"ALARM":                     Alarm,
	"ALARM_FIRE":                AlarmFire,
	"DISABLED":                  Disabled,
	"WALK_TEST":                 WalkTest,
}

// DecodeArmedState accepts the three wire shapes the upstream panel state
// may arrive as: int, numeric string, or an uppercase textual label. It
// never panics — an unrecognized value decodes to ArmedUnknown.
func DecodeArmedState(raw any) ArmedState {
	switch v := raw.(type) {
	case int:
		return intOrUnknown(v)
	case int64:
		return intOrUnknown(int(v))
	case float64:
		return intOrUnknown(int(v))
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return intOrUnknown(n)
		}
		if st, ok := labelToArmedState[strings.ToUpper(strings.TrimSpace(v))]; ok {
			return st
		}
		return ArmedUnknown
	default:
		return ArmedUnknown
	}
}

func intOrUnknown(n int) ArmedState {
	if st, ok := intToArmedState[n]; ok {
		return st
	}
	return ArmedUnknown
}
