package asr

import (
	"fmt"
	"sync"
)

var (
	ErrUnknownModel   = fmt.Errorf("unknown model")
	ErrDuplicateModel = fmt.Errorf("model label already registered")
	ErrNotEnoughModel = fmt.Errorf("at least two models are required")
)

// Registry holds the speech recognition clients, built once at startup and
// shared by everything that runs comparisons.
type Registry struct {
	mu     sync.RWMutex
	models map[string]SpeechRecognitionAPI
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{
		models: make(map[string]SpeechRecognitionAPI),
	}
}

func (r *Registry) Register(label string, api SpeechRecognitionAPI) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.models[label]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateModel, label)
	}
	r.models[label] = api
	r.order = append(r.order, label)
	return nil
}

func (r *Registry) Get(label string) (Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	api, ok := r.models[label]
	if !ok {
		return Model{}, fmt.Errorf("%w: %s", ErrUnknownModel, label)
	}
	return Model{Label: label, API: api}, nil
}

// Labels returns the model labels in registration order.
func (r *Registry) Labels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}

// Pair returns the first two registered models, A then B.
func (r *Registry) Pair() (Model, Model, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.order) < 2 {
		return Model{}, Model{}, ErrNotEnoughModel
	}

	a, b := r.order[0], r.order[1]
	return Model{Label: a, API: r.models[a]}, Model{Label: b, API: r.models[b]}, nil
}
