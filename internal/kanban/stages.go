package kanban

// ReconcileStages returns the stage fields that may be stored for a card in
// status. The interview stage only survives in Interviewing and the rejection
// stage only in Rejected; every other column clears both so a card dragged
// out of a column never carries its old sub-state along.
func ReconcileStages(status Status, interviewStage, rejectionStage *string) (*string, *string) {
	switch status {
	case StatusInterviewing:
		return interviewStage, nil
	case StatusRejected:
		return nil, rejectionStage
	case StatusApplied, StatusOffer, StatusCancelled:
		return nil, nil
	}
	return nil, nil
}
