package nodestream

import v1 "k8s.io/api/core/v1"

// Handler receives the stream's node events. Events for a single node
// arrive in the order the control plane emits them; no ordering is
// guaranteed across nodes.
type Handler interface {
	OnAdd(*v1.Node)
	OnUpdate(*v1.Node, *v1.Node)
	OnDelete(*v1.Node)
}

// HandlerFuncs adapts bare funcs into a Handler; nil funcs ignore their
// event.
type HandlerFuncs struct {
	OnAddFunc    func(*v1.Node)
	OnUpdateFunc func(*v1.Node, *v1.Node)
	OnDeleteFunc func(*v1.Node)
}

func (fn *HandlerFuncs) OnAdd(n *v1.Node) {
	if fn.OnAddFunc != nil {
		fn.OnAddFunc(n)
	}
}

func (fn *HandlerFuncs) OnUpdate(nOld *v1.Node, nNew *v1.Node) {
	if fn.OnUpdateFunc != nil {
		fn.OnUpdateFunc(nOld, nNew)
	}
}

func (fn *HandlerFuncs) OnDelete(n *v1.Node) {
	if fn.OnDeleteFunc != nil {
		fn.OnDeleteFunc(n)
	}
}
