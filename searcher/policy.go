package searcher

import "math"

type uct struct {
	lnN float64
}

func newUCT(parentVisits int) uct {
	return uct{lnN: math.Log(float64(parentVisits) + LogEpsilon)}
}

// UCT = q/n + c*sqrt(ln(N)/n), unvisited children come first
func (u uct) evaluate(q float64, n int) float64 {
	if n == 0 {
		return math.Inf(1)
	}
	return q/float64(n) + Exploration*math.Sqrt(u.lnN/(float64(n)+VisitsEpsilon))
}
