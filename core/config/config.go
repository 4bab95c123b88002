package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrParse is returned when the environment cannot be parsed into a config type.
var ErrParse = errors.New("config: parse environment")

var (
	dotenv sync.Once
	cache  sync.Map // reflect.Type -> any (value of the config struct)
)

// Load fills cfg from the environment. The first call loads a .env file
// from the working directory if one exists. Each type is parsed once; later
// calls with the same type copy the cached value.
func Load[T any](cfg *T) error {
	dotenv.Do(func() {
		_ = godotenv.Load()
	})

	typ := reflect.TypeFor[T]()
	if cached, ok := cache.Load(typ); ok {
		*cfg = cached.(T)
		return nil
	}

	var parsed T
	if err := env.Parse(&parsed); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrParse, typ, err)
	}

	actual, _ := cache.LoadOrStore(typ, parsed)
	*cfg = actual.(T)
	return nil
}

// MustLoad is like Load but panics on error.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}

// Reset drops every cached config so the next Load reads the environment
// again. Intended for tests.
func Reset() {
	cache.Clear()
}
