package nodestream

import (
	"context"
	"sync"

	"github.com/basalt-os/shepherd/pkg/logging"
	v1 "k8s.io/api/core/v1"
	"k8s.io/client-go/informers"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/cache"
	"k8s.io/client-go/util/workqueue"
)

var _ cache.ResourceEventHandler = (*informerStream)(nil)

// informerStream adapts a shared informer into the Handler callback
// contract, scoped by the Config's selector.
type informerStream struct {
	log logging.Logger

	informer cache.SharedIndexInformer
	handler  Handler

	workqueue    workqueue.RateLimitingInterface
	shutdownOnce sync.Once
}

func New(log logging.Logger, kube kubernetes.Interface, config Config, handler Handler) *informerStream {
	is := &informerStream{log: log, handler: handler}

	factory := informers.NewSharedInformerFactoryWithOptions(kube,
		config.resyncPeriod(), informers.WithTweakListOptions(config.selector()))
	informer := factory.Core().V1().Nodes().Informer()
	informer.AddEventHandler(is)

	is.informer = informer
	is.workqueue = workqueue.NewRateLimitingQueue(workqueue.DefaultControllerRateLimiter())

	return is
}

// GetInformer exposes the backing informer for access to its cached cluster
// state.
func (is *informerStream) GetInformer() cache.SharedIndexInformer {
	return is.informer
}

// Run delivers events until the context is cancelled, then releases the
// underlying watch.
func (is *informerStream) Run(ctx context.Context) error {
	is.log.Debug("starting")
	defer is.log.Debug("finished")
	go is.shutdownWithContext(ctx)
	is.informer.Run(ctx.Done())
	return nil
}

func (is *informerStream) shutdownWithContext(ctx context.Context) {
	<-ctx.Done()
	is.shutdown()
}

// shutdown is idempotent and safe to call concurrently with in-flight
// delivery.
func (is *informerStream) shutdown() {
	is.shutdownOnce.Do(func() {
		is.log.Debug("shutting down")
		defer is.log.Debug("shutdown")
		// Insert a sentinel to unblock any dequeue wait before shutting the
		// queue down. The worker must be listening on the same context and
		// must not latch onto the queue again afterwards (that would be a
		// race).
		is.workqueue.Add(nil)
		is.workqueue.ShutDown()
	})
}

func (is *informerStream) OnAdd(obj interface{}) {
	is.log.Debug("resource add event")
	is.handler.OnAdd(obj.(*v1.Node))
}

func (is *informerStream) OnDelete(obj interface{}) {
	is.log.Debug("resource delete event")
	is.handler.OnDelete(obj.(*v1.Node))
}

func (is *informerStream) OnUpdate(oldObj, newObj interface{}) {
	is.log.Debug("resource update event")
	is.handler.OnUpdate(oldObj.(*v1.Node), newObj.(*v1.Node))
}
