package reconciler

// Notifier is a single-slot dirty flag connecting the watch path to the
// reconciliation loop. Any number of Notify calls while the loop is busy
// coalesce into one pending signal.
type Notifier struct {
	ch chan struct{}
}

// NewNotifier creates an empty Notifier.
func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan struct{}, 1)}
}

// Notify marks the cluster state dirty. Never blocks.
func (n *Notifier) Notify() {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

// C returns the channel the loop waits on. Receiving clears the flag.
func (n *Notifier) C() <-chan struct{} {
	return n.ch
}

// Drain clears a pending signal without waiting.
func (n *Notifier) Drain() {
	select {
	case <-n.ch:
	default:
	}
}
