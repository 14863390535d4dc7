package runtime

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-tojs/errors"
)

const (
	allocMethod   = "alloc"
	deallocMethod = "dealloc"
)

// Class is a family of exports sharing a prefix that operate on guest
// objects. prefix_alloc creates an object and returns its handle, every other
// method takes the handle as its first argument, and prefix_dealloc frees it.
type Class struct {
	inst    *Instance
	prefix  string
	methods []string
}

// Class binds the exports named prefix_<method>. A missing trailing
// underscore is added. Without explicit methods, every export with the prefix
// except alloc is a method. dealloc is always one.
func (i *Instance) Class(prefix string, methods ...string) (*Class, error) {
	if !strings.HasSuffix(prefix, "_") {
		prefix += "_"
	}
	for _, m := range []string{allocMethod, deallocMethod} {
		if _, ok := i.descriptors[prefix+m]; !ok {
			return nil, errors.NotFound(errors.PhaseCall, "class export", prefix+m)
		}
	}

	if len(methods) == 0 {
		for _, fn := range i.Functions() {
			name, ok := strings.CutPrefix(fn.Name, prefix)
			if ok && fn.Described && name != allocMethod {
				methods = append(methods, name)
			}
		}
	} else {
		methods = slices.Clone(methods)
	}
	if !slices.Contains(methods, deallocMethod) {
		methods = append(methods, deallocMethod)
	}
	for _, m := range methods {
		if _, ok := i.descriptors[prefix+m]; !ok {
			return nil, errors.NotFound(errors.PhaseCall, "method", prefix+m)
		}
	}
	return &Class{inst: i, prefix: prefix, methods: methods}, nil
}

// Prefix returns the export prefix, ending in an underscore.
func (c *Class) Prefix() string {
	return c.prefix
}

// Methods returns the method names without the prefix.
func (c *Class) Methods() []string {
	return slices.Clone(c.methods)
}

// New calls alloc with args and wraps the returned handle.
func (c *Class) New(ctx context.Context, args ...any) (*Handle, error) {
	name := c.prefix + allocMethod
	v, err := c.inst.Call(ctx, name, args...)
	if err != nil {
		return nil, err
	}
	id, ok := v.(uint32)
	if !ok {
		d, _ := c.inst.Descriptor(name)
		return nil, errors.TypeMismatch(errors.PhaseCall, []string{name}, fmt.Sprintf("%T", v), d.String())
	}
	if id == 0 {
		return nil, errors.InvalidData(errors.PhaseCall, []string{name}, "null handle")
	}
	Logger().Debug("object allocated", zap.String("class", c.prefix), zap.Uint32("handle", id))
	return &Handle{class: c, id: id}, nil
}

// Handle is one guest object of a class. It is freed by Close.
type Handle struct {
	class  *Class
	id     uint32
	mu     sync.Mutex
	closed bool
}

// ID returns the guest handle.
func (h *Handle) ID() uint32 {
	return h.id
}

// Call invokes a method with the handle prepended to args.
func (h *Handle) Call(ctx context.Context, method string, args ...any) (any, error) {
	if method == deallocMethod {
		return nil, h.Close(ctx)
	}
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return nil, errors.NotInitialized(errors.PhaseCall, h.class.prefix+"object")
	}
	if !slices.Contains(h.class.methods, method) {
		return nil, errors.NotFound(errors.PhaseCall, "method", h.class.prefix+method)
	}
	return h.class.inst.Call(ctx, h.class.prefix+method, append([]any{h.id}, args...)...)
}

// Close calls dealloc once. Later calls return nil.
func (h *Handle) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	_, err := h.class.inst.Call(ctx, h.class.prefix+deallocMethod, h.id)
	return err
}
