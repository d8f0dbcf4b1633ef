package domain

// Feedback is either a Like or a Comment. The unexported method closes the set.
type Feedback interface {
	isFeedback()
}

// Like is a like (Positive) or a dislike signal.
type Like struct {
	Positive bool
}

// CommentFeedback appends Text to the section's comment thread.
type CommentFeedback struct {
	Text string
}

func (Like) isFeedback()            {}
func (CommentFeedback) isFeedback() {}
