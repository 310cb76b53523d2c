package dataset

// Item is a single prompt with the keywords a good answer must mention.
type Item struct {
	ID               string   `json:"id" yaml:"id"`
	Prompt           string   `json:"prompt" yaml:"prompt"`
	ExpectedKeywords []string `json:"expected_keywords" yaml:"expected_keywords"`
}

// Summary describes a dataset file for catalogue listings.
type Summary struct {
	Name    string
	Path    string
	Prompts int
	Preview string
	Err     error
}
