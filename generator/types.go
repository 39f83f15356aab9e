package generator

// Post is the structured content the model returns for one topic.
type Post struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Hashtags    []string `json:"hashtags"`
}

// Settings carries the generation knobs from master_settings.json.
type Settings struct {
	Model          string
	DefaultStyle   string
	MaxTitleLength int
}
