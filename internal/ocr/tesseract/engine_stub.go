//go:build !gosseract

package tesseract

import "context"

type Engine struct{}

func New(Options) (*Engine, error) { return nil, ErrUnavailable }

func (*Engine) Recognize(context.Context, string) (string, error) { return "", ErrUnavailable }
