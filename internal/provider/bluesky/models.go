package bluesky

import "encoding/json"

// Wire structures for the public Bluesky XRPC endpoints.

type feedResponse struct {
	Feed   []feedEntry `json:"feed"`
	Cursor string      `json:"cursor"`
}

type feedEntry struct {
	Post json.RawMessage `json:"post"`
}

type searchResponse struct {
	Posts  []json.RawMessage `json:"posts"`
	Cursor string            `json:"cursor"`
}

type postView struct {
	URI         string     `json:"uri"`
	CID         string     `json:"cid"`
	Author      authorView `json:"author"`
	Record      postRecord `json:"record"`
	Embed       *embedView `json:"embed"`
	ReplyCount  int        `json:"replyCount"`
	RepostCount int        `json:"repostCount"`
	LikeCount   int        `json:"likeCount"`
	QuoteCount  int        `json:"quoteCount"`
}

type authorView struct {
	DID         string `json:"did"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
}

type postRecord struct {
	Type      string   `json:"$type"`
	Text      string   `json:"text"`
	CreatedAt string   `json:"createdAt"`
	Langs     []string `json:"langs"`
}

type embedView struct {
	Type   string      `json:"$type"`
	Images []imageView `json:"images"`
}

type imageView struct {
	Thumb       string `json:"thumb"`
	Fullsize    string `json:"fullsize"`
	Alt         string `json:"alt"`
	AspectRatio *struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"aspectRatio"`
}

type sessionRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type sessionResponse struct {
	AccessJwt string `json:"accessJwt"`
	DID       string `json:"did"`
	Handle    string `json:"handle"`
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
