package analysis

import (
	"fmt"
	"math"
	"strings"
)

// DefaultMaxHR is used when neither a max HR nor an age is known
const DefaultMaxHR = 185

const (
	defaultLT1Pct = 77.0
	defaultLT2Pct = 87.0

	narrowGap   = 15 // bpm between LT1 and LT2
	narrowOff   = 2
	wideOff     = 5
	minZone3Gap = 10
	zone3Widen  = 3

	minPlausibleMaxHR = 100
	maxPlausibleMaxHR = 240
)

// Gender selects the max HR estimation formula
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

// Athlete holds the demographics used by the estimated tier
type Athlete struct {
	Age    int
	Gender Gender
}

// FitnessLevel is a six-tier training-status estimate
type FitnessLevel string

const (
	FitnessUntrained     FitnessLevel = "UNTRAINED"
	FitnessRecreational  FitnessLevel = "RECREATIONAL"
	FitnessTrained       FitnessLevel = "TRAINED"
	FitnessWellTrained   FitnessLevel = "WELL_TRAINED"
	FitnessHighlyTrained FitnessLevel = "HIGHLY_TRAINED"
	FitnessElite         FitnessLevel = "ELITE"
)

// FitnessPercents maps each fitness level to LT1/LT2 as %HRmax. The aerobic
// band widens with fitness.
var FitnessPercents = map[FitnessLevel][2]float64{
	FitnessUntrained:     {58, 78},
	FitnessRecreational:  {63, 81},
	FitnessTrained:       {68, 84},
	FitnessWellTrained:   {72, 87},
	FitnessHighlyTrained: {75, 90},
	FitnessElite:         {78, 93},
}

// FitnessEstimate is an optional external fitness assessment. Explicit
// percentages win over the level lookup.
type FitnessEstimate struct {
	Level           FitnessLevel
	LT1PercentHRmax float64
	LT2PercentHRmax float64
}

// ZoneMethod records what the zone table was derived from
type ZoneMethod string

const (
	ZoneMethodLactateTest ZoneMethod = "LACTATE_TEST"
	ZoneMethodFieldTest   ZoneMethod = "FIELD_TEST"
	ZoneMethodEstimated   ZoneMethod = "ESTIMATED"
)

// TrainingZone is one row of the zone table. Intensity bounds follow the
// heart-rate bounds: PaceMin is the pace at HRMin and so is the slower one.
type TrainingZone struct {
	Zone       int
	Name       string
	Intensity  string
	HRMin      int
	HRMax      int
	PercentMin int
	PercentMax int
	SpeedMin   float64
	SpeedMax   float64
	PowerMin   float64
	PowerMax   float64
	PaceMin    float64
	PaceMax    float64
	Effect     string
}

// ZoneCalculationResult is the five-zone table with its provenance
type ZoneCalculationResult struct {
	Zones      [5]TrainingZone
	MaxHR      int
	Confidence Confidence
	Method     ZoneMethod
	Warning    string
}

// ZoneInput collects everything the calculator may use. Any field may be
// missing.
type ZoneInput struct {
	MaxHR   int
	LT1     *Threshold
	LT2     *Threshold
	Athlete *Athlete
	Fitness *FitnessEstimate
}

var zoneInfo = [5]struct {
	name, intensity, effect string
}{
	{"Recovery", "Very light", "Active recovery and circulation"},
	{"Aerobic Endurance", "Light", "Aerobic base, fat oxidation, capillary density"},
	{"Tempo", "Moderate", "Aerobic power and lactate clearance"},
	{"Threshold", "Hard", "Raises the anaerobic threshold"},
	{"VO2max", "Very hard", "Maximal aerobic capacity and lactate tolerance"},
}

// EstimateMaxHR uses Gulati for women and Tanaka otherwise
func EstimateMaxHR(age int, gender Gender) int {
	if gender == GenderFemale {
		return int(math.Round(206 - 0.88*float64(age)))
	}
	return int(math.Round(208 - 0.7*float64(age)))
}

// CalculateZones derives a five-zone table. With LT1, LT2 and a max HR it
// uses the lactate layout; otherwise it falls back to %HRmax proxies. It
// never fails.
func CalculateZones(in ZoneInput) ZoneCalculationResult {
	maxHR, estimated, basis := resolveMaxHR(in)

	var notes []string
	if !estimated && (maxHR < minPlausibleMaxHR || maxHR > maxPlausibleMaxHR) {
		notes = append(notes, fmt.Sprintf(
			"max HR %d bpm is outside the usual %d-%d bpm range; check the measurement",
			maxHR, minPlausibleMaxHR, maxPlausibleMaxHR))
	}
	if in.LT1 != nil && in.LT2 != nil {
		bounds, narrow, ok := layoutBounds(maxHR, in.LT1.HeartRate, in.LT2.HeartRate)
		if ok {
			res := ZoneCalculationResult{
				MaxHR:      maxHR,
				Confidence: ConfidenceHigh,
				Method:     ZoneMethodLactateTest,
			}
			res.Zones = buildZones(maxHR, bounds)
			fillIntensity(&res.Zones, *in.LT1, *in.LT2)

			if estimated {
				res.Confidence = ConfidenceMedium
				res.Method = ZoneMethodFieldTest
				notes = append(notes, fmt.Sprintf("max HR %d bpm %s", maxHR, basis))
			}
			if narrow {
				notes = append(notes, fmt.Sprintf(
					"LT1 and LT2 are only %d bpm apart; narrow zone boundaries applied",
					in.LT2.HeartRate-in.LT1.HeartRate))
			}
			res.Warning = strings.Join(notes, "; ")
			return res
		}
		notes = append(notes, fmt.Sprintf(
			"thresholds (LT1 %d bpm, LT2 %d bpm) do not fit below max HR %d",
			in.LT1.HeartRate, in.LT2.HeartRate, maxHR))
	}

	p1, p2, pctBasis, pctNote := resolvePercents(in.Fitness)
	if pctNote != "" {
		notes = append(notes, pctNote)
	}
	hr1 := int(math.Round(float64(maxHR) * p1 / 100))
	hr2 := int(math.Round(float64(maxHR) * p2 / 100))

	bounds, _, ok := layoutBounds(maxHR, hr1, hr2)
	if !ok {
		bounds = percentBounds(maxHR)
	}
	notes = append(notes, fmt.Sprintf(
		"zones estimated from max HR %d bpm (%s) and %s (LT1 %.0f%%, LT2 %.0f%% of max); a lactate test gives individual zones",
		maxHR, basis, pctBasis, p1, p2))

	return ZoneCalculationResult{
		Zones:      buildZones(maxHR, bounds),
		MaxHR:      maxHR,
		Confidence: ConfidenceLow,
		Method:     ZoneMethodEstimated,
		Warning:    strings.Join(notes, "; "),
	}
}

func resolveMaxHR(in ZoneInput) (maxHR int, estimated bool, basis string) {
	if in.MaxHR > 0 {
		return in.MaxHR, false, "measured"
	}
	if in.Athlete != nil && in.Athlete.Age > 0 && in.Athlete.Age < 100 {
		hr := EstimateMaxHR(in.Athlete.Age, in.Athlete.Gender)
		formula := "Tanaka"
		if in.Athlete.Gender == GenderFemale {
			formula = "Gulati"
		}
		return hr, true, fmt.Sprintf("estimated with %s formula for age %d", formula, in.Athlete.Age)
	}
	return DefaultMaxHR, true, "default, no age given"
}

func resolvePercents(f *FitnessEstimate) (p1, p2 float64, basis, note string) {
	if f == nil {
		return defaultLT1Pct, defaultLT2Pct, "default percentages", ""
	}
	if f.LT1PercentHRmax > 0 || f.LT2PercentHRmax > 0 {
		if f.LT1PercentHRmax > 50 && f.LT1PercentHRmax < f.LT2PercentHRmax && f.LT2PercentHRmax < 98 {
			return f.LT1PercentHRmax, f.LT2PercentHRmax, "supplied fitness percentages", ""
		}
		note = fmt.Sprintf("ignored implausible fitness percentages %.0f%%/%.0f%%", f.LT1PercentHRmax, f.LT2PercentHRmax)
	}
	if pct, ok := FitnessPercents[f.Level]; ok {
		return pct[0], pct[1], fmt.Sprintf("fitness level %s", f.Level), note
	}
	return defaultLT1Pct, defaultLT2Pct, "default percentages", note
}

// layoutBounds returns the [min,max] heart rate of each zone around the
// two thresholds. ok is false when any zone would be empty or inverted.
func layoutBounds(maxHR, hr1, hr2 int) (bounds [5][2]int, narrow bool, ok bool) {
	gap := hr2 - hr1
	if hr1 <= 0 || gap <= 0 {
		return bounds, false, false
	}

	off := wideOff
	if gap < narrowGap {
		off = narrowOff
		narrow = true
	}

	z1Min := roundPct(maxHR, 0.5)
	z1Max := hr1 - 6
	if limit := roundPct(maxHR, 0.65); limit < z1Max {
		z1Max = limit
	}
	z2Max := hr1
	z3Max := hr2 - off
	if gap < minZone3Gap {
		z3Max += zone3Widen
	}
	z4Max := hr2 + off
	if z4Max > maxHR-1 {
		z4Max = maxHR - 1
	}
	if z3Max >= z4Max {
		z3Max = z4Max - 1
	}

	bounds = [5][2]int{
		{z1Min, z1Max},
		{z1Max + 1, z2Max},
		{z2Max + 1, z3Max},
		{z3Max + 1, z4Max},
		{z4Max + 1, maxHR},
	}
	for _, b := range bounds {
		if b[0] > b[1] {
			return bounds, narrow, false
		}
	}
	return bounds, narrow, true
}

// percentBounds is the classic 50/60/70/80/90/100 %HRmax table, used only
// when threshold proxies cannot be laid out. Each zone keeps at least one
// beat, so the table stays contiguous down to a max HR of 9.
func percentBounds(maxHR int) [5][2]int {
	cuts := [4]float64{0.6, 0.7, 0.8, 0.9}
	var bounds [5][2]int
	lo := roundPct(maxHR, 0.5)
	for i, c := range cuts {
		hi := max(roundPct(maxHR, c), lo)
		hi = min(hi, maxHR-(len(cuts)-i))
		bounds[i] = [2]int{lo, hi}
		lo = hi + 1
	}
	bounds[4] = [2]int{lo, maxHR}
	return bounds
}

func buildZones(maxHR int, bounds [5][2]int) [5]TrainingZone {
	var zones [5]TrainingZone
	for i, b := range bounds {
		zones[i] = TrainingZone{
			Zone:       i + 1,
			Name:       zoneInfo[i].name,
			Intensity:  zoneInfo[i].intensity,
			HRMin:      b[0],
			HRMax:      b[1],
			PercentMin: percentOf(b[0], maxHR),
			PercentMax: percentOf(b[1], maxHR),
			Effect:     zoneInfo[i].effect,
		}
	}
	return zones
}

// fillIntensity maps zone heart rates onto intensity with the line through
// the two thresholds: interpolation between them, extrapolation outside.
func fillIntensity(zones *[5]TrainingZone, lt1, lt2 Threshold) {
	if lt1.Unit == "" || lt1.Unit != lt2.Unit || lt1.Value <= 0 || lt2.Value <= 0 {
		return
	}
	dh := float64(lt2.HeartRate - lt1.HeartRate)
	if dh <= 0 {
		return
	}
	x1, x2 := lt1.Effort(), lt2.Effort()
	at := func(hr int) float64 {
		x := x1 + (float64(hr-lt1.HeartRate))*(x2-x1)/dh
		return math.Max(0, x)
	}

	for i := range zones {
		z := &zones[i]
		lo, hi := at(z.HRMin), at(z.HRMax)
		switch lt1.Unit {
		case UnitSpeed:
			z.SpeedMin, z.SpeedMax = round1(lo), round1(hi)
		case UnitPower:
			z.PowerMin, z.PowerMax = math.Round(lo), math.Round(hi)
		case UnitPace:
			z.PaceMin, z.PaceMax = round2(fromEffort(lo, UnitPace)), round2(fromEffort(hi, UnitPace))
		}
	}
}

func roundPct(maxHR int, f float64) int {
	return int(math.Round(float64(maxHR) * f))
}

func percentOf(hr, maxHR int) int {
	if maxHR <= 0 {
		return 0
	}
	return int(math.Round(float64(hr) / float64(maxHR) * 100))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
