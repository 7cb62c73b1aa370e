package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
)

const testEssay = "Many people debate whether technology helps students. I believe it does more good than harm.\n\n" +
	"Firstly, technology gives students access to many resources. For example, online libraries hold millions of books. This shows that learning becomes easier.\n\n" +
	"In conclusion, technology helps students when its use is controlled."

const (
	testHook       = "Many people debate whether technology helps students."
	testThesis     = "I believe it does more good than harm."
	testTopic      = "Firstly, technology gives students access to many resources."
	testParaEnd    = "This shows that learning becomes easier."
	testConclusion = "In conclusion, technology helps students when its use is controlled."
)

var errGenerate = errors.New("provider unavailable")

// stageOf identifies which analysis prompt was sent.
func stageOf(prompt string) string {
	switch {
	case strings.Contains(prompt, "reviewing the structure"):
		return StageStructure
	case strings.Contains(prompt, "certified IELTS examiner"):
		return StageBand
	case strings.Contains(prompt, "on-screen highlights"):
		return StageAnnotation
	}
	return ""
}

// fakeGenerator answers per stage and counts calls.
type fakeGenerator struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	panics    map[string]bool
	block     bool
	calls     map[string]int
}

func newFakeGenerator() *fakeGenerator {
	return &fakeGenerator{
		responses: map[string]string{},
		errs:      map[string]error{},
		panics:    map[string]bool{},
		calls:     map[string]int{},
	}
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	stage := stageOf(prompt)
	f.mu.Lock()
	f.calls[stage]++
	resp, err, panics, block := f.responses[stage], f.errs[stage], f.panics[stage], f.block
	f.mu.Unlock()
	if panics {
		panic("generator exploded")
	}
	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return resp, err
}

func (f *fakeGenerator) callCount(stage string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[stage]
}

func (f *fakeGenerator) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}
