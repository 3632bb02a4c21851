package analysis

// Reference curves: {intensity, heart rate, lactate}

// standardCurve rises steadily from a moderate baseline
var standardCurve = [][3]float64{
	{8, 120, 1.1},
	{9, 128, 1.2},
	{10, 136, 1.4},
	{11, 143, 1.8},
	{12, 150, 2.4},
	{13, 157, 3.3},
	{14, 164, 4.6},
	{15, 171, 6.5},
	{16, 177, 9.0},
}

// eliteCurve stays flat below 1.0 mmol/L for the first half of the test
var eliteCurve = [][3]float64{
	{10, 125, 0.9},
	{11, 131, 0.9},
	{12, 137, 1.0},
	{13, 143, 1.0},
	{14, 149, 1.2},
	{15, 155, 1.6},
	{16, 161, 2.3},
	{17, 167, 3.4},
	{18, 173, 5.2},
}

// steepCurve ends far above 8 mmol/L, which drags D-max down to LT1 levels
var steepCurve = [][3]float64{
	{8, 118, 1.0},
	{9, 126, 1.0},
	{10, 134, 1.2},
	{11, 141, 1.5},
	{12, 148, 2.0},
	{13, 155, 3.0},
	{14, 162, 5.5},
	{15, 169, 8.5},
	{16, 175, 12.0},
}

// lowCurve never reaches 2.0 mmol/L
var lowCurve = [][3]float64{
	{10, 125, 0.8},
	{11, 131, 0.8},
	{12, 137, 0.9},
	{13, 143, 0.9},
	{14, 149, 1.0},
	{15, 155, 1.1},
	{16, 161, 1.25},
	{17, 167, 1.45},
	{18, 173, 1.7},
}

// flatCurve never leaves resting lactate
var flatCurve = [][3]float64{
	{10, 130, 1.0},
	{11, 140, 1.0},
	{12, 150, 1.0},
	{13, 160, 1.0},
	{14, 170, 1.0},
}

func speedStages(rows [][3]float64) []Stage {
	return curveStages(rows, UnitSpeed)
}

func curveStages(rows [][3]float64, unit IntensityUnit) []Stage {
	stages := make([]Stage, len(rows))
	for i, r := range rows {
		stages[i] = Stage{
			Seq:       i + 1,
			Intensity: r[0],
			HeartRate: r[1],
			Lactate:   r[2],
			Unit:      unit,
		}
	}
	return stages
}

// paceStages converts a speed curve to min/km
func paceStages(rows [][3]float64) []Stage {
	stages := speedStages(rows)
	for i := range stages {
		stages[i].Intensity = 60 / stages[i].Intensity
		stages[i].Unit = UnitPace
	}
	return stages
}

func ptr(v float64) *float64 {
	return &v
}
