// Package generationtest provides a scripted domain.Generator for tests.
package generationtest

import (
	"context"
	"sync"

	"github.com/simiyu-dess/OnboardIQ/internal/domain"
)

// Scripted answers each request with Respond and records every request.
// A nil Respond echoes the prompt.
type Scripted struct {
	Respond func(call int, req domain.GenerateRequest) (string, error)

	mu       sync.Mutex
	requests []domain.GenerateRequest
}

// Generate implements domain.Generator.
func (s *Scripted) Generate(ctx context.Context, req domain.GenerateRequest) (string, error) {
	s.mu.Lock()
	call := len(s.requests)
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.Respond == nil {
		return req.Prompt, nil
	}
	return s.Respond(call, req)
}

// Requests returns a copy of the recorded requests.
func (s *Scripted) Requests() []domain.GenerateRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.GenerateRequest(nil), s.requests...)
}

// Replies returns a Respond function that answers call i with replies[i],
// repeating the last reply once the list is exhausted.
func Replies(replies ...string) func(int, domain.GenerateRequest) (string, error) {
	return func(call int, _ domain.GenerateRequest) (string, error) {
		if call >= len(replies) {
			call = len(replies) - 1
		}
		return replies[call], nil
	}
}

// FailAt returns a Respond function that fails call n with err and otherwise
// replies "ok".
func FailAt(n int, err error) func(int, domain.GenerateRequest) (string, error) {
	return func(call int, _ domain.GenerateRequest) (string, error) {
		if call == n {
			return "", err
		}
		return "ok", nil
	}
}
