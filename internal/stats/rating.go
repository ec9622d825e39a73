package stats

import "math"

// PasserRating is the NFL passer rating rounded to one decimal. Each of the
// four components is clamped to [0, 2.375]; zero attempts rate 0.
func PasserRating(cmp, att, yds, td, ints float64) float64 {
	if att <= 0 {
		return 0
	}
	clamp := func(x float64) float64 { return math.Max(0, math.Min(2.375, x)) }
	a := clamp((cmp/att - 0.3) * 5)
	b := clamp((yds/att - 3) * 0.25)
	c := clamp(td / att * 20)
	d := clamp(2.375 - ints/att*25)
	return math.Round((a+b+c+d)/6*100*10) / 10
}
