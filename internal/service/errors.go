package service

import (
	"errors"

	"github.com/MartyBonacci/tweeter-gdg-1/internal/apperr"
	"github.com/MartyBonacci/tweeter-gdg-1/pkg/validator"
)

// Caller-facing messages.
const (
	MsgUsernameTaken      = "Username already taken"
	MsgEmailTaken         = "Email already registered"
	MsgInvalidCredentials = "Invalid email or password"
	MsgEmailNotVerified   = "Email not verified. Please check your email for verification link."
	MsgTokenRequired      = "Verification token is required"
	MsgInvalidToken       = "Invalid or expired verification token"
	MsgTweetNotFound      = "Tweet not found"
	MsgTweetNotDeletable  = "Tweet not found or you are not authorized to delete it"
	MsgUserNotFound       = "User not found"
	MsgProfileNotFound    = "Profile not found"
	MsgNoFile             = "No file provided"
	MsgFileTooLarge       = "File size exceeds 5MB limit"
	MsgInvalidFileType    = "Invalid file type. Only JPEG, PNG, and WebP are allowed"
	MsgUploadFailed       = "Failed to upload image"
)

// validate runs v against req and converts rule failures into a
// validation error whose message is the first failure.
func validate(v *validator.Validator, req interface{}) error {
	err := v.Validate(req)
	if err == nil {
		return nil
	}

	var verr *validator.ValidationError
	if errors.As(err, &verr) && len(verr.Messages) > 0 {
		return apperr.Validation(verr.Messages[0], verr.Messages)
	}
	return err
}
