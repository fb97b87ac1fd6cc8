package types

// SearchRequest 检索请求.
type SearchRequest struct {
	Q string `json:"q"`
}

// SearchResponse 检索结果. SearchType 为 ai 或 text.
type SearchResponse struct {
	Results    []Document `json:"results"`
	Total      int        `json:"total"`
	Query      string     `json:"query"`
	SearchType string     `json:"search_type"`
	DurationMS int64      `json:"duration_ms"`
}
