package claim

import "context"

// Notifiers fans one result out to several notifiers in order
type Notifiers []Notifier

func (n Notifiers) Notify(ctx context.Context, r Result) {
	for _, notifier := range n {
		if notifier != nil {
			notifier.Notify(ctx, r)
		}
	}
}
