package model

// WebResult is one organic result from a web search engine, optionally
// enriched with scraped page text.
type WebResult struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Snippet       string `json:"snippet"`
	PublishedDate string `json:"publishedDate,omitempty"`
	Source        string `json:"source"`
	Text          string `json:"text,omitempty"`
	ScrapeStatus  string `json:"scrape_status,omitempty"`
	TextLength    int    `json:"text_length,omitempty"`
	ScrapeError   string `json:"scrape_error,omitempty"`
}

// FetchLog records one page-scrape attempt during web search.
type FetchLog struct {
	URL    string `json:"url"`
	OK     bool   `json:"ok"`
	Status int    `json:"status,omitempty"`
	Length int    `json:"length,omitempty"`
	Error  string `json:"error,omitempty"`
}
