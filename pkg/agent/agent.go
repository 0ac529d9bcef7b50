package agent

import (
	"context"
	"os"
	"time"

	"github.com/basalt-os/shepherd/pkg/intent"
	intentcache "github.com/basalt-os/shepherd/pkg/intent/cache"
	"github.com/basalt-os/shepherd/pkg/internal/logfields"
	"github.com/basalt-os/shepherd/pkg/k8sutil"
	"github.com/basalt-os/shepherd/pkg/logging"
	"github.com/basalt-os/shepherd/pkg/marker"
	"github.com/basalt-os/shepherd/pkg/nodestream"
	"github.com/basalt-os/shepherd/pkg/platform"
	"github.com/basalt-os/shepherd/pkg/workgroup"
	"github.com/pkg/errors"
	v1 "k8s.io/api/core/v1"
	v1meta "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	corev1 "k8s.io/client-go/kubernetes/typed/core/v1"
)

const (
	initialPollDelay   = time.Minute * 1
	updatePollInterval = time.Minute * 30
)

var errInvalidProgress = errors.New("intended to make invalid progress")

// Agent executes the controller's wanted actions on its own node through
// the platform and reports the outcomes back as markers.
type Agent struct {
	log      logging.Logger
	kube     kubernetes.Interface
	platform platform.Platform
	nodeName string

	poster poster
	proc   proc

	progress  progression
	posted    *postTracker
	lastCache intentcache.LastCache
}

// poster publishes a named marker container onto its node.
type poster interface {
	Post(intent.Input) error
}

type proc interface {
	KillProcess() error
}

func New(log logging.Logger, kube kubernetes.Interface, plat platform.Platform, nodeName string) (*Agent, error) {
	if nodeName == "" {
		return nil, errors.New("nodeName must be provided for Agent to manage")
	}
	var nodeclient corev1.NodeInterface
	if kube != nil {
		nodeclient = kube.CoreV1().Nodes()
	}
	return &Agent{
		log:       log,
		kube:      kube,
		platform:  plat,
		poster:    &k8sPoster{log, nodeclient},
		proc:      &osProc{},
		nodeName:  nodeName,
		posted:    newPostTracker(),
		lastCache: intentcache.NewLastCache(),
	}, nil
}

func (a *Agent) checkProviders() error {
	switch {
	case a.kube == nil:
		return errors.New("kubernetes client is nil")
	case a.platform == nil:
		return errors.New("supporting platform is nil")
	}
	return nil
}

// Run drives the agent until the context is cancelled: it streams its own
// node's events, polls for available updates, and realizes instructed
// actions.
func (a *Agent) Run(ctx context.Context) error {
	if err := a.checkProviders(); err != nil {
		return errors.WithMessage(err, "misconfigured")
	}
	a.log.Debug("starting")
	defer a.log.Debug("finished")

	group := workgroup.WithContext(ctx)

	ns := nodestream.New(a.log.WithField(logging.SubComponentField, "informer"), a.kube, nodestream.Config{
		NodeName: a.nodeName,
	}, a.handler())

	group.Work(ns.Run)
	group.Work(a.periodicUpdateChecker)

	if err := a.checkNodePreflight(); err != nil {
		return err
	}

	<-ctx.Done()
	a.log.Info("waiting on workers to finish")
	return group.Wait()
}

// periodicUpdateChecker polls the platform for update availability and
// posts the resulting marker.
func (a *Agent) periodicUpdateChecker(ctx context.Context) error {
	timer := time.NewTimer(initialPollDelay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			avail, err := a.platform.ListAvailable()
			if err != nil {
				a.log.WithError(err).Error("unable to check for updates")
			} else if err := a.setUpdateAvailable(len(avail.Updates()) > 0); err != nil {
				a.log.WithError(err).Error("unable to post update availability")
			}
		}
		timer.Reset(updatePollInterval)
	}
}

func (a *Agent) setUpdateAvailable(available bool) error {
	node, err := a.kube.CoreV1().Nodes().Get(a.nodeName, v1meta.GetOptions{})
	if err != nil {
		return errors.WithMessage(err, "unable to get node")
	}
	in := intent.Given(node).SetUpdateAvailable(available)
	return a.postIntent(in)
}

func (a *Agent) handler() nodestream.Handler {
	return &nodestream.HandlerFuncs{
		OnAddFunc: a.handleEvent,
		// The diff between old and new doesn't matter here, handle the new
		// resource.
		OnUpdateFunc: func(_, n *v1.Node) {
			a.handleEvent(n)
		},
		OnDeleteFunc: func(_ *v1.Node) {
			panic("the node this agent manages was deleted out from under it")
		},
	}
}

func (a *Agent) handleEvent(node *v1.Node) {
	in := intent.Given(node)
	log := a.log.WithFields(logfields.Intent(in))

	if a.posted.matchesPost(in) {
		log.Debug("event echoes own post")
		return
	}
	if intent.Equivalent(a.lastCache.Last(in), in) {
		log.Debug("dropping duplicate intent")
		return
	}

	if !activeIntent(in) {
		log.Debug("inactive intent received")
		return
	}

	log.Debug("active intent received")
	a.lastCache.Record(in)
	if err := a.realize(in); err != nil {
		log.WithError(err).Error("could not handle intent")
	}
}

// activeIntent filters for intents that are actionable by this agent right
// now.
func activeIntent(i *intent.Intent) bool {
	wanted := i.InProgress() && !i.DegradedPath()
	empty := i.Wanted == "" || i.Active == "" || i.State == ""
	unknown := i.Wanted == marker.NodeActionUnknown
	return wanted && !empty && !unknown
}

// realize acts on the wanted action. The platform's outcome is
// authoritative for the resulting Active and State markers: Active is set
// to Wanted only once the platform reports the step went through.
func (a *Agent) realize(in *intent.Intent) error {
	log := a.log.WithFields(logfields.Intent(in))
	log.Debug("realizing intent")

	a.posted.clear()

	// ACK that the wanted action is being worked on.
	ack := in.Clone()
	ack.State = marker.NodeStateBusy
	if err := a.postIntent(ack); err != nil {
		return err
	}

	var err error
	switch in.Wanted {
	case marker.NodeActionReset:
		a.progress.Reset()

	case marker.NodeActionPrepareUpdate:
		var ups platform.Available
		ups, err = a.platform.ListAvailable()
		if err != nil {
			break
		}
		if len(ups.Updates()) == 0 {
			err = errInvalidProgress
			break
		}
		a.progress.SetTarget(ups.Updates()[0])
		log.Debug("preparing update")
		err = a.platform.Prepare(a.progress.GetTarget())

	case marker.NodeActionPerformUpdate:
		if !a.progress.Valid() {
			err = errInvalidProgress
			break
		}
		log.Debug("updating")
		err = a.platform.Update(a.progress.GetTarget())

	case marker.NodeActionUnknown, marker.NodeActionStabilize:
		log.Debug("sitrep")
		_, err = a.platform.Status()

	case marker.NodeActionRebootUpdate:
		if !a.progress.Valid() {
			err = errInvalidProgress
			break
		}
		log.Info("rebooting node to complete update")
		err = a.platform.BootUpdate(a.progress.GetTarget(), true)
		if err == nil {
			// Leave the acknowledged action behind for the post-reboot
			// preflight to find, then terminate.
			in.Active = in.Wanted
			in.State = marker.NodeStateBusy
			a.postIntent(in)
			if a.proc != nil {
				defer a.proc.KillProcess()
			}
			return nil
		}
	}

	if err != nil {
		log.WithError(err).Error("could not realize intent")
		in.State = marker.NodeStateError
	} else {
		log.Debug("realized intent")
		in.Active = in.Wanted
		in.State = marker.NodeStateReady
	}

	a.postIntent(in)

	return err
}

// checkNodePreflight normalizes the node's markers on startup and posts
// this build's compatibility versions so the controller's selector matches
// the node.
func (a *Agent) checkNodePreflight() error {
	n, err := a.kube.CoreV1().Nodes().Get(a.nodeName, v1meta.GetOptions{})
	if err != nil {
		return errors.WithMessage(err, "unable to retrieve node for preflight check")
	}

	if err := a.poster.Post(versionBanner(n.GetName())); err != nil {
		return errors.WithMessage(err, "unable to post version markers")
	}

	in := intent.Given(n)
	switch {
	case in.Terminal():
		// A terminating point with no progress to make; note readiness.
		in.State = marker.NodeStateReady
	case in.Waiting():
		// Already in a holding pattern, no need to re-prime in preflight.
	default:
		// There's no good way to re-prime in the prior state.
		in = in.Reset()
	}
	return a.postIntent(in)
}

func (a *Agent) postIntent(in *intent.Intent) error {
	err := a.poster.Post(in)
	if err == nil {
		a.posted.recordPost(in)
		a.lastCache.Record(in)
	}
	return err
}

// versions posts this build's compatibility markers alongside intents.
type versions struct {
	nodeName string
}

func versionBanner(nodeName string) *versions {
	return &versions{nodeName: nodeName}
}

func (v *versions) GetName() string { return v.nodeName }

func (v *versions) GetAnnotations() map[string]string {
	return map[string]string{
		marker.PlatformVersionKey: marker.PlatformVersionBuild,
		marker.OperatorVersionKey: marker.OperatorBuildVersion,
	}
}

func (v *versions) GetLabels() map[string]string {
	return map[string]string{
		marker.PlatformVersionKey: marker.PlatformVersionBuild,
		marker.OperatorVersionKey: marker.OperatorBuildVersion,
	}
}

type osProc struct{}

func (*osProc) KillProcess() error {
	p, _ := os.FindProcess(os.Getpid())
	go p.Kill()
	return nil
}

type k8sPoster struct {
	log        logging.Logger
	nodeclient corev1.NodeInterface
}

// Post writes the container's markers onto its node.
func (k *k8sPoster) Post(c intent.Input) error {
	nodeName := c.GetName()
	defer k.log.WithField("node", nodeName).Debug("posted metadata")
	return k8sutil.PostMetadata(k.log, k.nodeclient, nodeName, c)
}
