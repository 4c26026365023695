package dto

type StatusUpdateRequest struct {
	Status string `json:"status"`
}

type StoryRequest struct {
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	Description string `json:"description"`
	Image       string `json:"image"`
	AppID       string `json:"appId"`
	Type        string `json:"type"`
}

type ModerationQueueResponse struct {
	Apps    []AppResponse `json:"apps"`
	Pending int           `json:"pending"`
	Review  int           `json:"review"`
}
