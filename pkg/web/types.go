package web

// ExecuteWorkflowRequest starts a workflow execution.
type ExecuteWorkflowRequest struct {
	Context     map[string]any `json:"context"`
	InitiatorID string         `json:"initiator_id" validate:"required"`
}

type CancelExecutionRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// RespondTaskRequest records an approval decision.
type RespondTaskRequest struct {
	Approved *bool  `json:"approved" validate:"required"`
	Comments string `json:"comments"`
	UserID   string `json:"user_id"  validate:"required"`
}

type ProcessDocumentRequest struct {
	Text         string         `json:"text"          validate:"required"`
	DocumentType string         `json:"document_type" validate:"required"`
	Metadata     map[string]any `json:"metadata"`
}

type AnalyzeDocumentRequest struct {
	Text       string `json:"text"        validate:"required"`
	ReviewType string `json:"review_type"`
}

type CreateTemplateRequest struct {
	Name     string `json:"name"     validate:"required,min=3"`
	Category string `json:"category"`
	Content  string `json:"content"  validate:"required"`
}
