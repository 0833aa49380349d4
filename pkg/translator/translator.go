package translator

import "context"

// Translator turns source-language text into the target language.
type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
}

// Func adapts a plain function to Translator.
type Func func(ctx context.Context, text, target string) (string, error)

func (f Func) Translate(ctx context.Context, text, target string) (string, error) {
	return f(ctx, text, target)
}
