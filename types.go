package website

import "github.com/nathan-a-king/website-sub000/post"

// Post is a stored post: the served detail plus its publication state.
// Drafts are kept in the store but never reach the posts API.
type Post struct {
	post.Detail
	Published bool
}

// Image is an uploaded image under StaticDir/uploads.
type Image struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Size         int    `json:"size"`
	UploadedAt   string `json:"uploadedAt"`
}

// URL returns the public path of the image.
func (i Image) URL() string {
	return "/public/" + uploadsSubdir + "/" + i.Filename
}
