package model

// FAQItem is one question/answer pair shown below the calculator.
// Items are grouped by category and sorted by Order within a category.
type FAQItem struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Category string `json:"category"`
	Order    int    `json:"order"`
	IsActive bool   `json:"is_active"`
}
