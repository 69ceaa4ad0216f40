package kube

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	netv1 "k8s.io/api/networking/v1"
	"k8s.io/client-go/informers"
	"k8s.io/client-go/tools/cache"
)

// watchResyncPeriod forces a periodic full notification even if watch
// events were dropped, keeping the derived configuration from drifting.
const watchResyncPeriod = 10 * time.Minute

// EventType describes the kind of Ingress change observed by the watch.
type EventType string

const (
	EventAdd    EventType = "add"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// NotifyFunc receives Ingress change notifications. Implementations must
// not block: the watch delivers events inline.
type NotifyFunc func(event EventType)

// WatchIngresses subscribes to cluster-wide Ingress changes and invokes
// notify for every create, update and delete. It carries no payload on
// purpose: consumers relist the full snapshot instead of applying deltas.
//
// Blocks until the context is cancelled. Returns an error only if the
// watch could not be established.
func (c *Client) WatchIngresses(ctx context.Context, notify NotifyFunc) error {
	factory := informers.NewSharedInformerFactory(c.clientset, watchResyncPeriod)
	informer := factory.Networking().V1().Ingresses().Informer()

	_, err := informer.AddEventHandler(cache.ResourceEventHandlerFuncs{
		AddFunc: func(_ any) {
			notify(EventAdd)
		},
		UpdateFunc: func(oldObj, newObj any) {
			if sameResourceVersion(oldObj, newObj) {
				return
			}

			notify(EventUpdate)
		},
		DeleteFunc: func(_ any) {
			notify(EventDelete)
		},
	})
	if err != nil {
		return errors.Wrap(err, "failed to register ingress event handler")
	}

	factory.Start(ctx.Done())

	if !cache.WaitForCacheSync(ctx.Done(), informer.HasSynced) {
		if ctx.Err() != nil {
			return nil
		}

		return errors.New("ingress informer cache failed to sync")
	}

	<-ctx.Done()

	return nil
}

// sameResourceVersion filters the no-op updates produced by periodic
// informer resyncs.
func sameResourceVersion(oldObj, newObj any) bool {
	oldIngress, oldOK := oldObj.(*netv1.Ingress)
	newIngress, newOK := newObj.(*netv1.Ingress)

	if !oldOK || !newOK {
		return false
	}

	return oldIngress.ResourceVersion == newIngress.ResourceVersion
}
