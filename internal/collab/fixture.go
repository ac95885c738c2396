package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/sprintlens/sprintlens/pkg/models"
)

// Fixture is a JSON-file-backed data source implementing both collaborator
// contracts. It lets the CLI run without a live tracker integration and
// doubles as the test fake.
type Fixture struct {
	Sprints     []models.Sprint                      `json:"sprints"`
	Issues      map[string][]models.Issue            `json:"issues"`      // sprint id -> issues
	Transitions map[string][]models.StatusTransition `json:"transitions"` // issue key -> history
	Reviews     []models.ReviewRequest               `json:"reviews"`
	Boards      map[string][]string                  `json:"boards"` // board id -> sprint ids
}

var (
	_ IssueTracker = (*Fixture)(nil)
	_ ReviewSystem = (*Fixture)(nil)
)

// LoadFixture reads a fixture from a JSON file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load fixture: %w", err)
	}

	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &f, nil
}

func (f *Fixture) FetchSprintMetadata(_ context.Context, sprintID string) (models.Sprint, error) {
	for _, s := range f.Sprints {
		if s.ID == sprintID {
			return s, nil
		}
	}
	return models.Sprint{}, fmt.Errorf("sprint %q: %w", sprintID, ErrNotFound)
}

func (f *Fixture) FetchSprintIssues(_ context.Context, sprintID string) ([]models.Issue, error) {
	return f.Issues[sprintID], nil
}

func (f *Fixture) FetchIssueTransitions(_ context.Context, issueKey string) ([]models.StatusTransition, error) {
	return f.Transitions[issueKey], nil
}

// FetchHistoricalSprints returns closed sprints on the board, most recent
// first by end date.
func (f *Fixture) FetchHistoricalSprints(_ context.Context, boardID string, count int) ([]models.Sprint, error) {
	ids := f.Boards[boardID]
	member := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		member[id] = struct{}{}
	}

	var closed []models.Sprint
	for _, s := range f.Sprints {
		if _, ok := member[s.ID]; !ok {
			continue
		}
		if s.State == models.SprintClosed {
			closed = append(closed, s)
		}
	}

	sort.SliceStable(closed, func(i, j int) bool {
		return closed[i].EndAt.After(closed[j].EndAt)
	})
	if len(closed) > count {
		closed = closed[:count]
	}
	return closed, nil
}

// FetchReviewRequestsForIssues returns reviews linked to any of the given
// issue keys, deduplicated by review id.
func (f *Fixture) FetchReviewRequestsForIssues(_ context.Context, issueKeys []string) ([]models.ReviewRequest, error) {
	wanted := make(map[string]struct{}, len(issueKeys))
	for _, k := range issueKeys {
		wanted[k] = struct{}{}
	}

	seen := make(map[string]struct{})
	var out []models.ReviewRequest
	for _, r := range f.Reviews {
		for _, k := range r.IssueKeys {
			if _, ok := wanted[k]; !ok {
				continue
			}
			if _, dup := seen[r.ID]; !dup {
				seen[r.ID] = struct{}{}
				out = append(out, r)
			}
			break
		}
	}
	return out, nil
}
