package controller

import (
	"context"
	"math/rand"

	"github.com/basalt-os/shepherd/pkg/intent"
	intentcache "github.com/basalt-os/shepherd/pkg/intent/cache"
	"github.com/basalt-os/shepherd/pkg/internal/logfields"
	"github.com/basalt-os/shepherd/pkg/logging"
	"github.com/basalt-os/shepherd/pkg/marker"
	"github.com/basalt-os/shepherd/pkg/nodestream"

	"github.com/pkg/errors"
	v1 "k8s.io/api/core/v1"
	"k8s.io/client-go/kubernetes"
	corev1 "k8s.io/client-go/kubernetes/typed/core/v1"
	"k8s.io/client-go/tools/cache"
)

const (
	// maxQueuedIntents bounds the Intents accepted and waiting to be
	// handled.
	maxQueuedIntents = 100
	// maxQueuedInputs bounds raw observations waiting to be considered.
	maxQueuedInputs = maxQueuedIntents / 4
	// queueSkipThreshold is the backlog depth at which low priority intents
	// start being shed.
	queueSkipThreshold = maxQueuedIntents / 2
)

var _ nodestream.Handler = (*actionManager)(nil)

var randDropIntFunc func(int) int = rand.Intn

// actionManager interprets node changes, consults policy, and drives each
// permitted update flow to completion.
type actionManager struct {
	log       logging.Logger
	kube      kubernetes.Interface
	policy    Policy
	inputs    chan *intent.Intent
	storer    storer
	poster    poster
	nodem     nodeManager
	lastCache intentcache.LastCache
}

// poster publishes an intent to its node.
type poster interface {
	Post(*intent.Intent) error
}

// nodeManager performs the workload handling surrounding intrusive node
// actions.
type nodeManager interface {
	Cordon(string) error
	Uncordon(string) error
	Drain(string) error
	CheckReady(string) error
}

type storer interface {
	GetStore() cache.Store
}

func newManager(log logging.Logger, kube kubernetes.Interface) *actionManager {
	var nodeclient corev1.NodeInterface
	if kube != nil {
		nodeclient = kube.CoreV1().Nodes()
	}

	return &actionManager{
		log:       log,
		kube:      kube,
		policy:    &defaultPolicy{log: log.WithField(logging.SubComponentField, "policy-check")},
		inputs:    make(chan *intent.Intent, maxQueuedInputs),
		poster:    &k8sPoster{log, nodeclient},
		nodem:     &k8sNodeManager{log: log.WithField(logging.SubComponentField, "node-manager"), kube: kube},
		lastCache: intentcache.NewLastCache(),
	}
}

func (am *actionManager) Run(ctx context.Context) error {
	am.log.Debug("starting")
	defer am.log.Debug("finished")

	queuedIntents := make(chan *intent.Intent, maxQueuedIntents)

	for {
		select {
		case <-ctx.Done():
			return nil

		case qin, ok := <-queuedIntents:
			if !ok {
				return errors.New("queued intent channel closed")
			}
			log := am.log.WithFields(logfields.Intent(qin))
			log.Debug("checking with policy")
			pview, err := am.makePolicyCheck(qin)
			if err != nil {
				log.WithError(err).Error("policy unenforceable")
				continue
			}
			proceed, err := am.policy.Check(pview)
			if err != nil {
				log.WithError(err).Error("policy check errored")
				continue
			}
			if !proceed {
				log.Debug("policy denied intent")
				continue
			}
			log.Debug("handling permitted intent")
			am.takeAction(qin)

		case input, ok := <-am.inputs:
			if !ok {
				return errors.New("input channel closed")
			}

			queued := len(queuedIntents)
			log := am.log.WithFields(logfields.Intent(input)).
				WithField("queue-length", queued)

			if queued < queueSkipThreshold {
				queuedIntents <- input
				continue
			}

			// The backlog is deep, be selective about what propagates.
			// Active nodes' events must reach the handler or their update
			// stalls.
			if isClusterActive(input) {
				log.Info("queue active intent")
				queuedIntents <- input
				continue
			}
			if isLowPriority(input) && randDropIntFunc(10)%2 == 0 {
				log.Warn("queue backlog high, randomly dropping intent")
				continue
			}
			select {
			case queuedIntents <- input:
			default:
				log.Warn("queue full, dropping intent this try")
			}
		}
	}
}

func isLowPriority(in *intent.Intent) bool {
	stabilizing := in.Wanted == marker.NodeActionStabilize
	unknown := in.Wanted == marker.NodeActionUnknown || in.Wanted == ""
	hasUpdate := in.UpdateAvailable == marker.NodeUpdateAvailable
	return (stabilizing && !hasUpdate) || unknown
}

func (am *actionManager) takeAction(pin *intent.Intent) error {
	log := am.log.WithFields(logfields.Intent(pin))
	successCheckRun := successfulUpdate(pin)
	if successCheckRun {
		log.Debug("handling successful update")
	}

	if pin.Intrusive() && !successCheckRun {
		err := am.nodem.Cordon(pin.NodeName)
		if err != nil {
			log.WithError(err).Error("could not cordon")
			return err
		}
		err = am.nodem.Drain(pin.NodeName)
		if err != nil {
			log.WithError(err).Error("could not drain")
			// TODO: make workload check/ignore configurable
			log.Warn("proceeding anyway")
		}
	}

	// A node that completed its update round gets reset to stabilize and
	// its workload returned.
	if successCheckRun {
		pin = pin.Reset()

		err := am.nodem.CheckReady(pin.NodeName)
		if err != nil {
			log.WithError(err).Error("unable to verify node readiness")
			log.Warn("proceeding anyway")
		}
		err = am.nodem.Uncordon(pin.NodeName)
		if err != nil {
			log.WithError(err).Error("could not uncordon")
			// TODO: make policy consider failed success handling, otherwise
			// repeated failures here could starve the cluster of schedulable
			// nodes.
			log.Warn("workload will not return")
			return err
		}
	}

	err := am.poster.Post(pin)
	if err != nil {
		log.WithError(err).Error("unable to post intent")
	}
	return err
}

// makePolicyCheck collects cluster state for the policy to consider alongside
// the intended action.
func (am *actionManager) makePolicyCheck(in *intent.Intent) (*PolicyCheck, error) {
	if am.storer == nil {
		return nil, errors.Errorf("manager has no store to access, needed for policy check")
	}
	return newPolicyCheck(in, am.storer.GetStore())
}

// SetStoreProvider couples the manager to a cached cluster state source.
func (am *actionManager) SetStoreProvider(storer storer) {
	am.storer = storer
}

func (am *actionManager) handle(node intent.Input) {
	log := am.log.WithField("node", node.GetName())
	log.Debug("handling event")

	in := am.intentFor(node)
	if in == nil {
		return // no actionable intent signaled
	}
	log = log.WithFields(logfields.Intent(in))

	if intent.Equivalent(am.lastCache.Last(in), in) {
		log.Debug("dropping duplicate intent")
		return // same as the last Intent sent through
	}
	am.lastCache.Record(in)

	select {
	case am.inputs <- in:
		log.Debug("queue intent")
	default:
		log.Warn("unable to queue intent (back pressure)")
	}
}

// intentFor interprets the intention given the Node's markers.
func (am *actionManager) intentFor(node intent.Input) *intent.Intent {
	in := intent.Given(node)
	log := am.log.WithFields(logfields.Intent(in))

	if in.Stuck() {
		reset := in.Reset()
		log.WithField("intent-reset", reset.DisplayString()).Warn("stabilizing stuck node")
		return reset
	}
	// TODO: add per-node bucketed backoff for error handling and retries.
	if in.Errored() {
		log.Warn("action errored on node, resetting to stabilize")
		return in.Reset().Projected()
	}
	next := in.Projected()
	if (in.Actionable() || next.Actionable()) && in.Realized() && !in.InProgress() {
		log.Debug("needs action towards next step")
		return next
	}
	if !in.Realized() {
		log.Debug("intent is not yet realized")
		return nil
	}

	if successfulUpdate(in) {
		return in
	}

	if in.HasUpdateAvailable() && in.Waiting() && !in.Errored() {
		log.Debug("intent starts update")
		return in.SetBeginUpdate()
	}

	log.Debug("no action needed")
	return nil
}

// successfulUpdate matches a node resting at the end of its update round.
func successfulUpdate(in *intent.Intent) bool {
	atFinalTerm := intent.FallbackNodeAction != in.Wanted && !in.Stuck()
	return atFinalTerm && in.Waiting() && in.Terminal() && in.Realized()
}

// OnAdd is a Handler implementation for nodestream
func (am *actionManager) OnAdd(node *v1.Node) {
	am.handle(node)
}

// OnDelete is a Handler implementation for nodestream
func (am *actionManager) OnDelete(node *v1.Node) {
	am.handle(node)
}

// OnUpdate is a Handler implementation for nodestream
func (am *actionManager) OnUpdate(_ *v1.Node, node *v1.Node) {
	am.handle(node)
}
