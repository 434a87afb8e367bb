package service

import (
	"github.com/entrhq/funcbox/pkg/function"
)

// Response is the structured envelope returned by every public operation.
// Failures carry the error kind and a message instead of a Go error so
// calling layers can render them directly.
type Response struct {
	Success  bool               `json:"success"`
	Data     any                `json:"data,omitempty"`
	Error    function.ErrorKind `json:"error,omitempty"`
	Message  string             `json:"message,omitempty"`
	Issues   []function.Issue   `json:"issues,omitempty"`
	Warnings []function.Issue   `json:"warnings,omitempty"`
}

// OK wraps data in a successful response.
func OK(data any) *Response {
	return &Response{Success: true, Data: data}
}

// Fail converts err into a failed response.
func Fail(err error) *Response {
	return &Response{
		Success: false,
		Error:   function.KindOf(err),
		Message: function.MessageOf(err),
		Issues:  function.IssuesOf(err),
	}
}

// Err returns the response's failure as a *function.Error, or nil on success.
func (r *Response) Err() error {
	if r == nil || r.Success {
		return nil
	}
	return &function.Error{Kind: r.Error, Message: r.Message, Issues: r.Issues}
}
