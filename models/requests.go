package models

// Chat_Request is the body of POST /api/v1/chat/:conversationID.
type Chat_Request struct {
	Message string `json:"message" binding:"required"`
}

// Food_Analysis_Form holds the non-file fields of a food analysis upload.
type Food_Analysis_Form struct {
	AgeMonths int `form:"age_months"`
}
