package googlebooks

// VolumesResponse is the response from /volumes.
type VolumesResponse struct {
	Kind       string   `json:"kind"`
	TotalItems int      `json:"totalItems"`
	Items      []Volume `json:"items"`
}

// Volume is a single book entry.
type Volume struct {
	ID         string     `json:"id"`
	VolumeInfo VolumeInfo `json:"volumeInfo"`
}

// VolumeInfo carries the bibliographic fields of a volume.
type VolumeInfo struct {
	Title               string               `json:"title"`
	Subtitle            string               `json:"subtitle"`
	Authors             []string             `json:"authors"`
	Publisher           string               `json:"publisher"`
	PublishedDate       string               `json:"publishedDate"`
	Description         string               `json:"description"`
	IndustryIdentifiers []IndustryIdentifier `json:"industryIdentifiers"`
	PageCount           int                  `json:"pageCount"`
	Categories          []string             `json:"categories"`
	AverageRating       float64              `json:"averageRating"`
	RatingsCount        int                  `json:"ratingsCount"`
	ImageLinks          *ImageLinks          `json:"imageLinks,omitempty"`
	Language            string               `json:"language"`
	InfoLink            string               `json:"infoLink"`
}

// IndustryIdentifier is an ISBN or other catalog identifier.
type IndustryIdentifier struct {
	Type       string `json:"type"` // ISBN_10, ISBN_13, ISSN, OTHER
	Identifier string `json:"identifier"`
}

// ImageLinks are cover thumbnails, smallest first.
type ImageLinks struct {
	SmallThumbnail string `json:"smallThumbnail"`
	Thumbnail      string `json:"thumbnail"`
	Small          string `json:"small"`
	Medium         string `json:"medium"`
}

// ErrorResponse is the error envelope returned by Google APIs.
type ErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NormalizedBookResult is the normalized book returned by the client.
// Rating is on Google's 0-5 scale; zero means unrated.
type NormalizedBookResult struct {
	ID          string
	Title       string
	Subtitle    string
	Description string
	Authors     []string
	Publisher   string
	Year        int
	ISBN        string
	PageCount   int
	Categories  []string
	Rating      float64
	CoverURL    string
	Language    string
	InfoURL     string
}
