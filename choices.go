package ntbea

// Candidate is one neighbour collected by a CandidateSelector.
type Candidate struct {
	Point Point
	Score float64
}

// CandidateSelector collects a round's distinct neighbours, scores each with
// an AcquisitionFunc (UCB, i.e. EvaluateScore, by default) and returns the
// best one.
//
// Important notes:
//   - Duplicates (value-equal points) are rejected and do not count toward N
//   - Best breaks ties in favour of the first inserted candidate
//   - One selector serves one round and is then discarded
type CandidateSelector struct {
	model      BanditLandscapeModel
	acquire    AcquisitionFunc
	params     AcquisitionParams
	seen       map[string]struct{}
	candidates []Candidate
	picker     *Picker[Point]
}

// NewCandidateSelector returns an empty selector scoring with model and the
// UCB rule.
func NewCandidateSelector(model BanditLandscapeModel, kExplore float64) *CandidateSelector {
	return NewCandidateSelectorWith(model, UCB, AcquisitionParams{KExplore: kExplore})
}

// NewCandidateSelectorWith returns an empty selector scoring with model and
// acquire. A nil acquire means UCB.
func NewCandidateSelectorWith(model BanditLandscapeModel, acquire AcquisitionFunc, params AcquisitionParams) *CandidateSelector {
	if acquire == nil {
		acquire = UCB
	}

	return &CandidateSelector{
		model:   model,
		acquire: acquire,
		params:  params,
		seen:    make(map[string]struct{}),
		picker:  NewPicker[Point](MaxFirst),
	}
}

// Add scores p and keeps it unless an equal point is already held. It
// reports whether p was added.
func (cs *CandidateSelector) Add(p Point) bool {
	key := p.Key()
	if _, dup := cs.seen[key]; dup {
		return false
	}

	cs.seen[key] = struct{}{}

	score := cs.acquire(cs.model.MeanEstimate(p), cs.model.ExplorationEstimate(p), cs.params)
	cs.candidates = append(cs.candidates, Candidate{Point: p, Score: score})
	cs.picker.Add(score, p)

	return true
}

// N returns the number of distinct candidates held.
func (cs *CandidateSelector) N() int { return len(cs.candidates) }

// Best returns the highest-scoring candidate. The boolean is false when the
// selector is empty.
func (cs *CandidateSelector) Best() (Point, float64, bool) {
	return cs.picker.Best()
}

// Candidates returns the collected candidates in insertion order.
func (cs *CandidateSelector) Candidates() []Candidate {
	return append([]Candidate(nil), cs.candidates...)
}
