package engine

// notifier fans out change notifications to registered observers.
//
// Model dirtiness (a semantic mutation happened) and view dirtiness
// (something cosmetic moved and external views should re-render) are two
// distinct channels. A node drag raises only the view channel; every
// engine mutation raises exactly one model notification after its
// invariants are fully restored.
type notifier struct {
	modelObservers []func()
	viewObservers  []func()
}

// OnModelChanged registers an observer for semantic network mutations.
func (n *notifier) OnModelChanged(fn func()) {
	n.modelObservers = append(n.modelObservers, fn)
}

// OnViewDirty registers an observer for cosmetic changes that require a
// re-render but do not alter the logical model.
func (n *notifier) OnViewDirty(fn func()) {
	n.viewObservers = append(n.viewObservers, fn)
}

func (n *notifier) notifyModelChanged() {
	for _, fn := range n.modelObservers {
		fn()
	}
}

func (n *notifier) notifyViewDirty() {
	for _, fn := range n.viewObservers {
		fn()
	}
}
