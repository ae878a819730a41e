package pixabay

// Wire types of the Pixabay REST API.

type imageResponse struct {
	Total     int     `json:"total"`
	TotalHits int     `json:"totalHits"`
	Hits      []image `json:"hits"`
}

type image struct {
	ID            int64  `json:"id"`
	PageURL       string `json:"pageURL"`
	Tags          string `json:"tags"`
	PreviewURL    string `json:"previewURL"`
	WebformatURL  string `json:"webformatURL"`
	LargeImageURL string `json:"largeImageURL"`
	ImageURL      string `json:"imageURL"` // Only with full API access
	ImageWidth    int    `json:"imageWidth"`
	ImageHeight   int    `json:"imageHeight"`
	ImageSize     int64  `json:"imageSize"`
	Views         int    `json:"views"`
	Downloads     int    `json:"downloads"`
	Likes         int    `json:"likes"`
	UserID        int64  `json:"user_id"`
	User          string `json:"user"`
}

type videoResponse struct {
	Total     int     `json:"total"`
	TotalHits int     `json:"totalHits"`
	Hits      []video `json:"hits"`
}

type video struct {
	ID        int64      `json:"id"`
	PageURL   string     `json:"pageURL"`
	Tags      string     `json:"tags"`
	Duration  int        `json:"duration"`
	Videos    videoFiles `json:"videos"`
	Views     int        `json:"views"`
	Downloads int        `json:"downloads"`
	Likes     int        `json:"likes"`
	UserID    int64      `json:"user_id"`
	User      string     `json:"user"`
}

type videoFiles struct {
	Large  *videoFile `json:"large"`
	Medium *videoFile `json:"medium"`
	Small  *videoFile `json:"small"`
	Tiny   *videoFile `json:"tiny"`
}

type videoFile struct {
	URL       string `json:"url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Size      int64  `json:"size"`
	Thumbnail string `json:"thumbnail"`
}
