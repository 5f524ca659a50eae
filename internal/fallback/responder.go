// Package fallback answers queries the corpus cannot support.
package fallback

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/simiyu-dess/OnboardIQ/internal/domain"
	"github.com/simiyu-dess/OnboardIQ/internal/logging"
)

const apologyFormat = "I apologize, but I cannot find information about '%s' in the uploaded documents. " +
	"The documents I have access to don't contain this information. " +
	"Please check if you have uploaded the correct documents or try asking about information that might be available in the current documents."

const promptFormat = `The user asked: "%s"

However, this information is not available in the uploaded documents.
Missing information: %s

Please provide a helpful response that:
1. Acknowledges that the requested information is not in the uploaded documents
2. Explains what information is available in the documents
3. Suggests what the user could do to get the information they need
4. Offers to help with other questions about the available documents

Be polite, helpful, and professional in your response.`

const persona = "You are a helpful document assistant. You only answer from the user's uploaded documents and say so plainly when they do not cover a question."

// Reply always carries displayable text. Degraded is set when the generator
// failed and Text is the fixed apology; Cause then holds the failure.
type Reply struct {
	Text     string
	Degraded bool
	Cause    error
}

// Responder produces the out-of-context reply with a single generation call.
type Responder struct {
	gen         domain.Generator
	temperature float64
	log         *zap.Logger
}

func NewResponder(gen domain.Generator, temperature float64, log *zap.Logger) *Responder {
	return &Responder{gen: gen, temperature: temperature, log: logging.OrNop(log).Named("fallback")}
}

// Prompt renders the instruction sent to the generator.
func Prompt(query, explanation string) string {
	return fmt.Sprintf(promptFormat, query, explanation)
}

// Apology is the reply used when generation is unavailable.
func Apology(query string) string {
	return fmt.Sprintf(apologyFormat, query)
}

// Respond never fails; generator errors degrade to Apology.
func (r *Responder) Respond(ctx context.Context, query, explanation string) Reply {
	text, err := r.gen.Generate(ctx, domain.GenerateRequest{
		Prompt:      Prompt(query, explanation),
		Persona:     persona,
		Temperature: r.temperature,
	})
	if err == nil && text == "" {
		err = fmt.Errorf("%w: empty response", domain.ErrGeneration)
	}
	if err != nil {
		r.log.Warn("out-of-context generation failed, using apology", zap.String("query", query), zap.Error(err))
		return Reply{Text: Apology(query), Degraded: true, Cause: err}
	}
	return Reply{Text: text}
}
