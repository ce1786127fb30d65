package sim

// Season of the simulated year. SeasonNone means the caller did not
// supply one; seasonal modifiers resolve to 1.0 in that case.
type Season uint8

const (
	SeasonNone Season = iota
	SeasonSpring
	SeasonSummer
	SeasonAutumn
	SeasonWinter
)

var seasonNames = map[Season]string{
	SeasonNone:   "",
	SeasonSpring: "spring",
	SeasonSummer: "summer",
	SeasonAutumn: "autumn",
	SeasonWinter: "winter",
}

func (s Season) String() string { return seasonNames[s] }

// ParseSeason converts a season name to a Season. The empty string is
// accepted and means "no season".
func ParseSeason(name string) (Season, error) {
	for s, n := range seasonNames {
		if n == name {
			return s, nil
		}
	}
	return SeasonNone, Invalidf("season", name, "unknown season")
}

// EnvironmentalFactors are the raw multiplicative conditions a caller
// supplies with a stepping call. 1.0 is neutral for every field;
// crowding and hygiene above 1.0 worsen spread, healthcare above 1.0
// improves care. A zero value is treated as "unspecified" and resolves
// to neutral.
type EnvironmentalFactors struct {
	Crowding   float64 `json:"crowding"`
	Hygiene    float64 `json:"hygiene"`
	Healthcare float64 `json:"healthcare"`
	Season     Season  `json:"season"`
}

// Normalized returns a copy with unspecified (zero) fields replaced by
// the neutral value 1.0.
func (f EnvironmentalFactors) Normalized() EnvironmentalFactors {
	if f.Crowding == 0 {
		f.Crowding = 1.0
	}
	if f.Hygiene == 0 {
		f.Hygiene = 1.0
	}
	if f.Healthcare == 0 {
		f.Healthcare = 1.0
	}
	return f
}

// Validate rejects negative factor values. Zero is allowed (unspecified).
func (f EnvironmentalFactors) Validate() error {
	if f.Crowding < 0 {
		return Invalidf("crowding", f.Crowding, "must be >= 0")
	}
	if f.Hygiene < 0 {
		return Invalidf("hygiene", f.Hygiene, "must be >= 0")
	}
	if f.Healthcare < 0 {
		return Invalidf("healthcare", f.Healthcare, "must be >= 0")
	}
	return nil
}
