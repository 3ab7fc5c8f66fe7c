package social

import (
	"fmt"
	"strings"
)

// MissingEnvError is returned when required configuration is missing.
type MissingEnvError struct {
	Provider  string
	Variables []string
}

func (e MissingEnvError) Error() string {
	if len(e.Variables) == 0 {
		return fmt.Sprintf("%s credentials not configured", e.Provider)
	}
	return fmt.Sprintf("%s credentials not configured (missing %s)", e.Provider, strings.Join(e.Variables, ", "))
}

// ValidationError captures provider-specific validation issues.
type ValidationError struct {
	Provider string
	Reason   string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s validation failed: %s", e.Provider, e.Reason)
}

// UnknownAccountError is returned when a logical account name is not in
// the registry.
type UnknownAccountError struct {
	Name string
}

func (e UnknownAccountError) Error() string {
	return fmt.Sprintf("unknown account %q", e.Name)
}

// PublishError wraps a platform's rejection of a publish call.
type PublishError struct {
	Provider string
	Account  string
	Cause    error
}

func (e PublishError) Error() string {
	return fmt.Sprintf("%s publish failed for %s: %v", e.Provider, e.Account, e.Cause)
}

func (e PublishError) Unwrap() error { return e.Cause }

// DigestResolutionError is returned when a reference could not be
// completed before a repost. Typically transient: the original post was
// deleted or is not yet visible to the directory.
type DigestResolutionError struct {
	Provider string
	ID       string
	Cause    error
}

func (e DigestResolutionError) Error() string {
	return fmt.Sprintf("%s digest resolution failed for %s: %v", e.Provider, e.ID, e.Cause)
}

func (e DigestResolutionError) Unwrap() error { return e.Cause }

// PartialThreadError reports a thread interrupted mid-sequence. Published
// is the count of posts that succeeded before the failure; those posts
// are never rolled back.
type PartialThreadError struct {
	Account   string
	Published int
	Total     int
	Cause     error
}

func (e PartialThreadError) Error() string {
	return fmt.Sprintf("thread interrupted on %s after %d/%d posts: %v", e.Account, e.Published, e.Total, e.Cause)
}

func (e PartialThreadError) Unwrap() error { return e.Cause }
