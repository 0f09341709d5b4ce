package vanishing

import (
	"math"
	"math/rand"
)

const (
	testWidth  = 640
	testHeight = 480
)

// seqSource replays fixed values, reduced modulo n.
type seqSource struct {
	vals []int
	next int
}

func (s *seqSource) Intn(n int) int {
	v := s.vals[s.next%len(s.vals)]
	s.next++
	return v % n
}

// pencilScene returns four segments: a near horizontal pair meeting far to
// the right and a near vertical pair meeting far below. At a small threshold
// any two of them form an equally good consensus, so extraction need not
// recover the pairs.
func pencilScene() []Segment {
	return []Segment{
		{A: Point{X: 50, Y: 100}, B: Point{X: 590, Y: 120}},
		{A: Point{X: 50, Y: 380}, B: Point{X: 590, Y: 360}},
		{A: Point{X: 150, Y: 40}, B: Point{X: 170, Y: 440}},
		{A: Point{X: 470, Y: 40}, B: Point{X: 450, Y: 440}},
	}
}

// convergingScene returns eight segments aimed at pixel (1200, 200) with up to
// two pixels of endpoint jitter, followed by two unrelated segments.
func convergingScene() []Segment {
	vp := Point{X: 1200, Y: 200}
	starts := []Point{
		{X: 40, Y: 60}, {X: 60, Y: 420}, {X: 100, Y: 250}, {X: 200, Y: 120},
		{X: 220, Y: 380}, {X: 300, Y: 300}, {X: 120, Y: 460}, {X: 260, Y: 30},
	}
	jitter := []float64{0, 1.5, -1, 2, -2, 0.5, -1.5, 1}

	segs := make([]Segment, 0, len(starts)+2)
	for i, a := range starts {
		segs = append(segs, Segment{
			A: a,
			B: Point{X: a.X + 0.6*(vp.X-a.X), Y: a.Y + 0.6*(vp.Y-a.Y) + jitter[i]},
		})
	}
	return append(segs,
		Segment{A: Point{X: 500, Y: 50}, B: Point{X: 520, Y: 450}},
		Segment{A: Point{X: 100, Y: 450}, B: Point{X: 400, Y: 60}},
	)
}

// randomScene builds nIn segments converging on a random pixel outside the
// image and nOut segments with random orientation.
func randomScene(r *rand.Rand, nIn, nOut int) []Segment {
	vp := Point{
		X: testWidth/2 + (r.Float64()*2-1)*3*testWidth,
		Y: testHeight/2 + (r.Float64()*2-1)*3*testHeight,
	}
	segs := make([]Segment, 0, nIn+nOut)
	for i := 0; i < nIn; i++ {
		a := Point{X: r.Float64() * testWidth, Y: r.Float64() * testHeight}
		t := 0.2 + 0.3*r.Float64()
		segs = append(segs, Segment{A: a, B: Point{X: a.X + t*(vp.X-a.X), Y: a.Y + t*(vp.Y-a.Y)}})
	}
	for i := 0; i < nOut; i++ {
		a := Point{X: r.Float64() * testWidth, Y: r.Float64() * testHeight}
		theta := r.Float64() * math.Pi
		l := 40 + 200*r.Float64()
		segs = append(segs, Segment{A: a, B: Point{X: a.X + l*math.Cos(theta), Y: a.Y + l*math.Sin(theta)}})
	}
	r.Shuffle(len(segs), func(i, j int) { segs[i], segs[j] = segs[j], segs[i] })
	return segs
}

func allIndices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
