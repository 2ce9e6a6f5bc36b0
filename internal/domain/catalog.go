package domain

import "time"

// Category groups tickets and FAQ entries.
type Category struct {
	ID          string
	Name        string
	Description *string
	CreatedAt   time.Time
}

// FAQEntry is a knowledge base question/answer pair.
type FAQEntry struct {
	ID         string
	CategoryID *string
	Question   string
	Answer     string
	Helpful    int
	Views      int
	CreatedAt  time.Time
}
