package models

type GenerateVideoRequest struct {
	Prompt   string `json:"prompt" binding:"required" example:"a cat surfing a wave at sunset"`
	Model    string `json:"model" binding:"required,oneof=sora-2 sora-2-pro" example:"sora-2"`
	Duration int    `json:"duration" binding:"required,min=1" example:"4"`
	Size     string `json:"size" binding:"required" example:"1280x720"`
	Category string `json:"category" binding:"required" example:"nature"`
	Style    string `json:"style,omitempty" example:"cinematic"`
	// EnhancePrompt runs the prompt through the enhancement model before
	// submission. A quota error aborts the request; any other enhancement
	// failure falls back to the original prompt.
	EnhancePrompt bool `json:"enhance_prompt,omitempty"`
	// Wait blocks the request until the job reaches a terminal status or
	// the bounded poll hits its ceiling, reported as a wait error.
	Wait bool `json:"wait,omitempty"`
}

type EnhancePromptRequest struct {
	Prompt     string `json:"prompt" binding:"required"`
	Duration   int    `json:"duration,omitempty"`
	Resolution string `json:"resolution,omitempty"`
	Category   string `json:"category,omitempty"`
	Style      string `json:"style,omitempty"`
	Model      string `json:"model,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
