package domain

// Status is the commercial axis of a deal, independent of its stage.
type Status string

const (
	StatusActive     Status = "active"
	StatusQualified  Status = "qualified"
	StatusNurturing  Status = "nurturing"
	StatusClosedWon  Status = "closed-won"
	StatusClosedLost Status = "closed-lost"
)

var knownStatuses = map[Status]struct{}{
	StatusActive:     {},
	StatusQualified:  {},
	StatusNurturing:  {},
	StatusClosedWon:  {},
	StatusClosedLost: {},
}

func IsKnownStatus(s Status) bool {
	_, ok := knownStatuses[s]
	return ok
}

// IsClosedStatus reports whether the deal has been resolved as won or lost.
func IsClosedStatus(s Status) bool {
	return s == StatusClosedWon || s == StatusClosedLost
}

// IsClosed returns true if the deal is resolved on EITHER axis. Closed deals
// are excluded from automation.
func IsClosed(stage Stage, status Status) bool {
	return stage == StageClosed || IsClosedStatus(status)
}

// Temperature is the coarse engagement tier derived from a score.
type Temperature string

const (
	TemperatureHot  Temperature = "hot"
	TemperatureWarm Temperature = "warm"
	TemperatureCold Temperature = "cold"
)

func IsKnownTemperature(t Temperature) bool {
	return t == TemperatureHot || t == TemperatureWarm || t == TemperatureCold
}

// DeriveStatus moves an open deal between active, qualified and nurturing as
// its temperature changes. Closed statuses are never touched, and a zero score
// carries no signal.
func DeriveStatus(current Status, temperature Temperature, score int) Status {
	if IsClosedStatus(current) || score <= 0 {
		return current
	}
	switch temperature {
	case TemperatureHot, TemperatureWarm:
		return StatusQualified
	case TemperatureCold:
		return StatusNurturing
	}
	return current
}
