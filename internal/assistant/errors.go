package assistant

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vglena/valorapro/internal/valuation/domain"
	"github.com/vglena/valorapro/platform/apperr"
)

// Category classifies a failed generation for the client and for metrics.
type Category string

const (
	CategoryConnectivity Category = "connectivity"
	CategoryQuota        Category = "quota"
	CategoryTimeout      Category = "timeout"
	CategoryGeneric      Category = "generic"
)

var (
	// ErrPollBudgetExhausted is returned when a run is still pending after MaxPolls checks.
	ErrPollBudgetExhausted = errors.New("assistant run did not finish within the poll budget")
	// ErrEmptyReply is returned when the thread holds no assistant text.
	ErrEmptyReply = errors.New("assistant returned no text")
)

// RunError describes a run that ended in a terminal state other than completed.
type RunError struct {
	Status  string
	Code    string
	Message string
}

func (e *RunError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("assistant run %s", e.Status)
	}
	return fmt.Sprintf("assistant run %s: %s", e.Status, e.Message)
}

// Categorize maps a generator error onto one of the four categories.
func Categorize(err error) Category {
	if err == nil {
		return CategoryGeneric
	}
	if errors.Is(err, ErrPollBudgetExhausted) || errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return categorizeStatus(apiErr.HTTPStatusCode, apiErr.Type+" "+apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == 0 {
			return CategoryConnectivity
		}
		return categorizeStatus(reqErr.HTTPStatusCode, reqErr.Error())
	}
	var runErr *RunError
	if errors.As(err, &runErr) {
		switch {
		case runErr.Code == string(openai.RunErrorRateLimitExceeded):
			return CategoryQuota
		case runErr.Status == string(openai.RunStatusExpired):
			return CategoryTimeout
		}
		return CategoryGeneric
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return CategoryTimeout
		}
		return CategoryConnectivity
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota"), strings.Contains(msg, "resource_exhausted"), strings.Contains(msg, "429"):
		return CategoryQuota
	case strings.Contains(msg, "deadline"), strings.Contains(msg, "timeout"):
		return CategoryTimeout
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "no such host"), strings.Contains(msg, "unavailable"):
		return CategoryConnectivity
	}
	return CategoryGeneric
}

func categorizeStatus(status int, detail string) Category {
	switch {
	case status == http.StatusTooManyRequests, strings.Contains(strings.ToLower(detail), "quota"):
		return CategoryQuota
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return CategoryTimeout
	case status >= http.StatusInternalServerError:
		return CategoryConnectivity
	}
	return CategoryGeneric
}

// AppError translates a generator failure into an apperr carrying the
// category and provider in its details.
func AppError(provider domain.Provider, err error) *apperr.Error {
	category := Categorize(err)
	details := map[string]string{"category": string(category), "provider": string(provider)}

	var e *apperr.Error
	switch category {
	case CategoryQuota:
		e = apperr.Wrap(apperr.KindTooManyRequests, "valuation service quota reached, try again later", err)
	case CategoryTimeout:
		e = apperr.Wrap(apperr.KindGatewayTimeout, "valuation report took too long to generate", err)
	case CategoryConnectivity:
		e = apperr.Wrap(apperr.KindBadGateway, "could not reach the valuation service", err)
	default:
		e = apperr.Wrap(apperr.KindBadGateway, "valuation report generation failed", err)
	}
	return e.WithOp("assistant.Generate").WithDetails(details)
}
