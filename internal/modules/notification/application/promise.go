package application

import (
	"context"

	"github.com/brokeradda/portal/internal/modules/notification/domain"
)

// PromiseMessages are the toast texts for each stage of a Promise call.
// The derived forms take precedence over the fixed strings when set.
type PromiseMessages[T any] struct {
	Loading   string
	Success   string
	Error     string
	SuccessOf func(T) string
	ErrorOf   func(error) string
}

func (m PromiseMessages[T]) success(v T) string {
	if m.SuccessOf != nil {
		return m.SuccessOf(v)
	}
	return m.Success
}

func (m PromiseMessages[T]) failure(err error) string {
	if m.ErrorOf != nil {
		return m.ErrorOf(err)
	}
	if m.Error == "" {
		return err.Error()
	}
	return m.Error
}

// Promise shows a loading toast, runs fn and replaces that toast with a
// success or error toast depending on the outcome. It returns what fn
// returned; one toast represents the whole call.
func Promise[T any](ctx context.Context, n *Notifier, fn func(context.Context) (T, error), msgs PromiseMessages[T], opts domain.Options) (T, error) {
	loadingOpts := opts
	loadingOpts.Duration = nil
	id := n.Loading(msgs.Loading, loadingOpts)

	final := opts
	final.ID = id

	v, err := fn(ctx)
	if err != nil {
		n.Error(msgs.failure(err), final)
		return v, err
	}
	n.Success(msgs.success(v), final)
	return v, nil
}
