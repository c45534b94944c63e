package session

// CandidateView is the host's candidate popup.
type CandidateView interface {
	// ShowCandidates opens the popup with the first candidate selected.
	ShowCandidates(candidates []string)
	// UpdateCandidates refreshes an open popup and re-selects the first candidate.
	UpdateCandidates(candidates []string)
	HideCandidates()
	// SelectCandidate moves the highlight of an open popup.
	SelectCandidate(index int)
}

// ViewFuncs adapts plain callbacks to CandidateView. Nil fields are skipped.
type ViewFuncs struct {
	Show   func([]string)
	Update func([]string)
	Hide   func()
	Select func(int)
}

func (v ViewFuncs) ShowCandidates(c []string) {
	if v.Show != nil {
		v.Show(c)
	}
}

func (v ViewFuncs) UpdateCandidates(c []string) {
	if v.Update != nil {
		v.Update(c)
	}
}

func (v ViewFuncs) HideCandidates() {
	if v.Hide != nil {
		v.Hide()
	}
}

func (v ViewFuncs) SelectCandidate(i int) {
	if v.Select != nil {
		v.Select(i)
	}
}
