package tmdb

// Wire types in the source's own schema. Film and series items share one
// struct; which of Title/Name and ReleaseDate/FirstAirDate is set depends on kind.

type rawItem struct {
	ID            int64      `json:"id"`
	MediaType     string     `json:"media_type"`
	Title         string     `json:"title"`
	Name          string     `json:"name"`
	Overview      string     `json:"overview"`
	PosterPath    string     `json:"poster_path"`
	BackdropPath  string     `json:"backdrop_path"`
	ReleaseDate   string     `json:"release_date"`
	FirstAirDate  string     `json:"first_air_date"`
	GenreIDs      []int      `json:"genre_ids"`
	Genres        []rawGenre `json:"genres"`
	VoteAverage   float64    `json:"vote_average"`
	VoteCount     int        `json:"vote_count"`
	Popularity    float64    `json:"popularity"`
	Tagline       string     `json:"tagline"`
	Runtime       int        `json:"runtime"`
	NumberSeasons int        `json:"number_of_seasons"`
	CreatedBy     []struct {
		Name string `json:"name"`
	} `json:"created_by"`
	Credits *struct {
		Cast []rawCast `json:"cast"`
		Crew []rawCrew `json:"crew"`
	} `json:"credits"`
	Videos *struct {
		Results []rawVideo `json:"results"`
	} `json:"videos"`
	Recommendations *rawPage `json:"recommendations"`
}

type rawPage struct {
	Page         int       `json:"page"`
	Results      []rawItem `json:"results"`
	TotalPages   int       `json:"total_pages"`
	TotalResults int       `json:"total_results"`
}

type rawGenre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type rawCast struct {
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path"`
	Order       int    `json:"order"`
}

type rawCrew struct {
	Name string `json:"name"`
	Job  string `json:"job"`
}

type rawVideo struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}
