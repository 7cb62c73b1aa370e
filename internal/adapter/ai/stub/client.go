// Package stub provides a text generator for running without an AI provider.
package stub

import (
	"fmt"

	"github.com/fairyhunter13/ielts-writing-coach/internal/domain"
)

// Client always fails, so every analysis stage degrades to its rule-based
// result. It is wired when no AI_API_KEY is configured.
type Client struct{}

var _ domain.TextGenerator = Client{}

func New() Client { return Client{} }

// Generate reports that no provider is configured.
func (Client) Generate(_ domain.Context, _ string) (string, error) {
	return "", fmt.Errorf("%w: no AI provider configured", domain.ErrAICall)
}
