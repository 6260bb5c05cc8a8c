package dataset

import (
	"math"
	"math/rand/v2"
	"time"
)

// DriverNames lists the behavioral columns Synthetic generates, in
// output order.
var DriverNames = []string{
	"sleep_hours",
	"sleep_quality",
	"exercise_min",
	"outdoor_min",
	"social_min",
	"screen_min",
	"work_hours",
	"caffeine_mg",
	"alcohol_units",
	"steps",
}

// Synthetic generates a reproducible n-day diary starting 2024-01-01.
// Drivers follow weekly rhythms (less work and more social time on
// weekends); mood items respond nonlinearly to the previous night's
// sleep, same-day exercise and screen time, and the previous day's
// alcohol, plus rating noise. The same (n, seed) pair always yields the
// same diary.
func Synthetic(n int, seed uint64) *Diary {
	rng := rand.New(rand.NewPCG(seed, seed))

	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}

	drivers := make(map[string][]float64, len(DriverNames))
	for _, name := range DriverNames {
		drivers[name] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		wd := dates[i].Weekday()
		weekend := wd == time.Saturday || wd == time.Sunday

		sleep := 7.2 + 0.6*rng.NormFloat64()
		if weekend {
			sleep += 0.7
		}
		sleep = clamp(sleep, 4.0, 10.5)
		quality := clamp(math.Round(1.1*sleep-1.5+1.2*rng.NormFloat64()), 1, 10)

		exercise := 0.0
		if rng.Float64() < 0.55 {
			exercise = math.Round(clamp(35+15*rng.NormFloat64(), 10, 90))
		}
		outdoor := math.Round(clamp(25+20*rng.NormFloat64()+exercise*0.4, 0, 180))

		social := clamp(40+25*rng.NormFloat64(), 0, 240)
		if weekend {
			social += 60
		}
		social = math.Round(social)

		work := 0.0
		if !weekend {
			work = clamp(8+0.8*rng.NormFloat64(), 5, 11)
		}

		screen := math.Round(clamp(170+45*rng.NormFloat64()+work*8, 30, 540))
		caffeine := math.Round(clamp(120+50*rng.NormFloat64()+work*10, 0, 400))

		alcohol := 0.0
		if weekend && rng.Float64() < 0.6 {
			alcohol = math.Round(clamp(1.8+1.2*rng.NormFloat64(), 0, 6))
		} else if rng.Float64() < 0.15 {
			alcohol = 1
		}

		steps := math.Round(clamp(7000+2200*rng.NormFloat64()+exercise*55, 1200, 26000))

		drivers["sleep_hours"][i] = math.Round(sleep*10) / 10
		drivers["sleep_quality"][i] = quality
		drivers["exercise_min"][i] = exercise
		drivers["outdoor_min"][i] = outdoor
		drivers["social_min"][i] = social
		drivers["screen_min"][i] = screen
		drivers["work_hours"][i] = math.Round(work*10) / 10
		drivers["caffeine_mg"][i] = caffeine
		drivers["alcohol_units"][i] = alcohol
		drivers["steps"][i] = steps
	}

	moods := make(map[string][]float64, len(MoodColumns))
	for _, name := range MoodColumns {
		moods[name] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		sleepLag := drivers["sleep_hours"][i]
		alcoholLag := 0.0
		if i > 0 {
			sleepLag = drivers["sleep_hours"][i-1]
			alcoholLag = drivers["alcohol_units"][i-1]
		}

		// Latent day quality on a roughly [-3, 3] scale.
		base := 1.4*math.Tanh((sleepLag-7)/1.5) +
			0.010*drivers["exercise_min"][i] +
			0.006*drivers["outdoor_min"][i] +
			0.005*drivers["social_min"][i] -
			0.004*(drivers["screen_min"][i]-180) -
			0.45*alcoholLag -
			0.12*(drivers["work_hours"][i]-6)

		rate := func(center, scale, noise float64) float64 {
			return clamp(math.Round(center+scale*base+noise*rng.NormFloat64()), 1, 10)
		}

		moods["happiness"][i] = rate(6.0, 1.0, 0.9)
		moods["energy"][i] = rate(5.5, 1.1, 1.0)
		moods["calm"][i] = rate(6.0, 0.8, 1.0)
		moods["focus"][i] = rate(5.5, 0.9, 1.1)
		moods["motivation"][i] = rate(5.5, 1.0, 1.1)
		moods["irritability"][i] = rate(4.5, -0.9, 1.0)
		moods["anxiety"][i] = rate(4.0, -0.8, 1.0)
	}

	d := New(dates)
	for _, name := range MoodColumns {
		// Columns built above with matching lengths cannot fail to attach.
		_ = d.AddColumn(name, moods[name])
	}
	for _, name := range DriverNames {
		_ = d.AddColumn(name, drivers[name])
	}
	return d
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
