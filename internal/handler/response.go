package handler

import "github.com/dentalbuddy/clinic-api/internal/model"

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type PagedResponse struct {
	Status   string          `json:"status"`
	Data     interface{}     `json:"data"`
	PageInfo *model.PageInfo `json:"page_info"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

func NewPagedResponse(data interface{}, pageInfo *model.PageInfo) *PagedResponse {
	return &PagedResponse{
		Status:   "success",
		Data:     data,
		PageInfo: pageInfo,
	}
}
