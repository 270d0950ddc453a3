package inmemdb

import (
	"context"
	"sort"

	"github.com/kymanzi/darasa/core"
	"github.com/kymanzi/darasa/core/submission"
)

type submissionRepository struct {
	db *submissionTable
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *DB) *submissionRepository {
	return &submissionRepository{db: db.submission}
}

func (repo *submissionRepository) InsertSubmission(ctx context.Context, sub submission.Submission, exec ...core.DBExecutor) (submission.Submission, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// same uniqueness guarantee the psql constraint gives
	for _, s := range repo.db.table {
		if s.AssignmentID == sub.AssignmentID && s.LearnerID == sub.LearnerID {
			return submission.Submission{}, submission.ErrAlreadySubmitted
		}
	}
	repo.db.table[sub.ID] = &sub
	return sub, nil
}

func (repo *submissionRepository) GetSubmission(ctx context.Context, assignmentID, learnerID string, exec ...core.DBExecutor) (submission.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, sub := range repo.db.table {
		if sub.AssignmentID == assignmentID && sub.LearnerID == learnerID {
			return *sub, nil
		}
	}
	return submission.Submission{}, submission.ErrNotFound
}

func (repo *submissionRepository) GetSubmissionByID(ctx context.Context, id string, exec ...core.DBExecutor) (submission.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if sub, ok := repo.db.table[id]; ok {
		return *sub, nil
	}
	return submission.Submission{}, submission.ErrNotFound
}

func (repo *submissionRepository) UpdateSubmission(ctx context.Context, sub submission.Submission, exec ...core.DBExecutor) (submission.Submission, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[sub.ID]; !ok {
		return submission.Submission{}, submission.ErrNotFound
	}
	repo.db.table[sub.ID] = &sub
	return sub, nil
}

func (repo *submissionRepository) QuerySubmissionsByAssignment(ctx context.Context, assignmentID string, filter submission.Filter, exec ...core.DBExecutor) ([]submission.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	subs := make([]submission.Submission, 0)
	for _, sub := range repo.db.table {
		if sub.AssignmentID != assignmentID {
			continue
		}
		switch filter {
		case submission.FilterSubmitted:
			if sub.Status != submission.StatusSubmitted {
				continue
			}
		case submission.FilterLate:
			if !sub.IsLate {
				continue
			}
		case submission.FilterResubmissionRequired:
			if sub.Status != submission.StatusResubmissionRequired {
				continue
			}
		}
		subs = append(subs, *sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].SubmittedAt.After(subs[j].SubmittedAt) })
	return subs, nil
}

func (repo *submissionRepository) QuerySubmissionsByLearner(ctx context.Context, learnerID string, assignmentIDs []string, exec ...core.DBExecutor) ([]submission.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	wanted := make(map[string]bool, len(assignmentIDs))
	for _, id := range assignmentIDs {
		wanted[id] = true
	}

	subs := make([]submission.Submission, 0)
	for _, sub := range repo.db.table {
		if sub.LearnerID == learnerID && wanted[sub.AssignmentID] {
			subs = append(subs, *sub)
		}
	}
	return subs, nil
}
