package models

import "time"

type VideoResponse struct {
	ID             string                 `json:"id"`
	Prompt         string                 `json:"prompt"`
	EnhancedPrompt string                 `json:"enhanced_prompt,omitempty"`
	Model          string                 `json:"model"`
	Duration       int                    `json:"duration"`
	Size           string                 `json:"size"`
	Category       string                 `json:"category"`
	Style          string                 `json:"style,omitempty"`
	Status         string                 `json:"status"`
	OpenAITaskID   string                 `json:"openai_task_id,omitempty"`
	StoragePath    string                 `json:"storage_path,omitempty"`
	ThumbnailPath  string                 `json:"thumbnail_path,omitempty"`
	Cost           float64                `json:"cost"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

type VideoListResponse struct {
	Videos []VideoResponse `json:"videos"`
	Total  int             `json:"total"`
}

type GenerateVideoResponse struct {
	Video      VideoResponse `json:"video"`
	Submitted  bool          `json:"submitted"`
	// SubmitError carries the submission failure when the row was created
	// but the generation API rejected the request. The row stays pending
	// and is retry-eligible.
	SubmitError string `json:"submit_error,omitempty"`
	// WaitError is set when a wait request hit its polling ceiling before
	// the job finished. The job keeps running in the background.
	WaitError string `json:"wait_error,omitempty"`
}

type VideoStatusResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Progress int    `json:"progress,omitempty"`
}

type SignedURLResponse struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"`
}

type EnhancePromptResponse struct {
	Original string `json:"original"`
	Enhanced string `json:"enhanced"`
}

type UsageStatsResponse struct {
	TotalVideos      int            `json:"total_videos"`
	CompletedVideos  int            `json:"completed_videos"`
	ProcessingVideos int            `json:"processing_videos"`
	TotalCost        float64        `json:"total_cost"`
	CategoryCounts   map[string]int `json:"category_counts"`
}

type UsageLogResponse struct {
	ID        string                 `json:"id"`
	VideoID   string                 `json:"video_id"`
	Action    string                 `json:"action"`
	Cost      float64                `json:"cost"`
	Duration  int                    `json:"duration"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

type UsageLogListResponse struct {
	Logs []UsageLogResponse `json:"logs"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
