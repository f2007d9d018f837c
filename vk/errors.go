package vk

import "fmt"

// APIError is the error envelope returned by the VK API.
type APIError struct {
	ErrorCode int    `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vk api error %d: %s", e.ErrorCode, e.ErrorMsg)
}

// AuthError means the configured credentials were rejected. It is terminal
// for the current conversation and never retried.
type AuthError struct{ Err error }

func (e *AuthError) Error() string { return "vk auth: " + e.Err.Error() }
func (e *AuthError) Unwrap() error { return e.Err }

// Code implements the error-code interface consumed by handler logging.
func (e *AuthError) Code() string { return "VK_AUTH" }

// UploadError means staging the media to the wall upload server failed.
type UploadError struct{ Err error }

func (e *UploadError) Error() string { return "vk upload: " + e.Err.Error() }
func (e *UploadError) Unwrap() error { return e.Err }

// Code implements the error-code interface consumed by handler logging.
func (e *UploadError) Code() string { return "VK_UPLOAD" }

// PostError means creating the wall post or resolving its URL failed.
type PostError struct{ Err error }

func (e *PostError) Error() string { return "vk post: " + e.Err.Error() }
func (e *PostError) Unwrap() error { return e.Err }

// Code implements the error-code interface consumed by handler logging.
func (e *PostError) Code() string { return "VK_POST" }
