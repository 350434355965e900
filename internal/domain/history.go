package domain

// HistoryLimit caps the number of retained history items.
const HistoryLimit = 10

// HistoryItem records one completed transformation.
type HistoryItem struct {
	ID             string `json:"id"`
	OriginalURL    string `json:"originalUrl"`
	TransformedURL string `json:"transformedUrl"`
	StyleLabel     string `json:"styleLabel"`
	// Timestamp is in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}
