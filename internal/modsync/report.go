package modsync

type Status string

const (
	StatusInstalled       Status = "installed"
	StatusUpdated         Status = "updated"
	StatusUpToDate        Status = "up_to_date"
	StatusUpdateAvailable Status = "update_available"
	StatusSkipped         Status = "skipped"
	StatusFailed          Status = "failed"
)

// ItemOutcome is what happened to one requested or installed mod.
type ItemOutcome struct {
	// Input is the id, name or token entry the item was requested as.
	Input            string
	ModID            string
	Name             string
	Version          string
	PreviousVersion  string
	RequestedVersion string
	FileName         string
	Status           Status
	// Confirmed is set when the chosen release is tagged for the game version.
	Confirmed bool
	// Fallback is set when no release carried the game version and the newest was used.
	Fallback bool
	// Substituted is set when a pinned version was not published and another release was chosen.
	Substituted bool
	Err         error
}

// DisplayName prefers the repository name, then the id, then the raw input.
func (item ItemOutcome) DisplayName() string {
	switch {
	case item.Name != "":
		return item.Name
	case item.ModID != "":
		return item.ModID
	}
	return item.Input
}

type Report struct {
	Items []ItemOutcome
}

func (r Report) Count(status Status) int {
	count := 0
	for _, item := range r.Items {
		if item.Status == status {
			count++
		}
	}
	return count
}

func (r Report) HasFailures() bool {
	return r.Count(StatusFailed) > 0
}

func failed(item ItemOutcome, err error) ItemOutcome {
	item.Status = StatusFailed
	item.Err = err
	return item
}
