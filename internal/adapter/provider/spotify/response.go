package spotify

// searchResponse is the body of GET /search?type=track.
type searchResponse struct {
	Tracks struct {
		Offset int         `json:"offset"`
		Total  int         `json:"total"`
		Next   *string     `json:"next"`
		Items  []*apiTrack `json:"items"`
	} `json:"tracks"`
}

type apiTrack struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Artists []apiArtist `json:"artists"`
}

type apiArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
