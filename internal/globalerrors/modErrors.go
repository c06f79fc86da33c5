// Package globalerrors defines the mod lookup errors shared by the API client and the sync workflows.
package globalerrors

import (
	"fmt"
)

type ModNotFoundError struct {
	ModID string
}

func (e *ModNotFoundError) Error() string {
	return fmt.Sprintf("Mod not found on the mod repository: %s", e.ModID)
}

func (e *ModNotFoundError) Is(target error) bool {
	t, ok := target.(*ModNotFoundError)
	if !ok {
		return false
	}
	return t.ModID == "" || e.ModID == t.ModID
}

type ModAPIError struct {
	ModID string
	Err   error
}

func (e *ModAPIError) Error() string {
	if e.ModID == "" {
		return fmt.Sprintf("The mod repository request failed: %v", e.Err)
	}
	return fmt.Sprintf("Mod cannot be fetched due to an api error: %s", e.ModID)
}

func (e *ModAPIError) Is(target error) bool {
	t, ok := target.(*ModAPIError)
	if !ok {
		return false
	}
	return t.ModID == "" || e.ModID == t.ModID
}

func (e *ModAPIError) Unwrap() error {
	return e.Err
}

// ModAPIErrorWrap tags err with the mod it was fetched for. Not-found errors pass through untouched.
func ModAPIErrorWrap(err error, modID string) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*ModNotFoundError); ok {
		return err
	}
	return &ModAPIError{
		ModID: modID,
		Err:   err,
	}
}
