package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/dop251/goja"
	"golang.org/x/net/html"
)

// ExecuteScript - runs script as a function body in a fresh goja runtime. Elements in
// args appear as DOM-like objects; returning one of them yields the element back.
//
// The runtime offers a small subset of the DOM: tagName, id, textContent, getAttribute,
// setAttribute, querySelector(All) on elements and getElementById/querySelector(All)
// on document. Page scripts are never run.
func (s *DocumentSession) ExecuteScript(ctx context.Context, script string, args ...any) (any, error) {
	if err := s.usable(ctx); err != nil {
		return nil, err
	}
	if s.current == nil {
		return nil, fmt.Errorf("execute script: no page loaded")
	}
	native, err := scriptArguments(ctx, args)
	if err != nil {
		return nil, err
	}

	b := &scriptBridge{session: s, vm: goja.New(), objects: make(map[*goja.Object]*documentElement)}
	jsArgs := make([]any, len(native))
	for i, arg := range native {
		if el, ok := arg.(*documentElement); ok {
			if err := el.check(); err != nil {
				return nil, err
			}
			jsArgs[i] = b.object(el)
			continue
		}
		jsArgs[i] = arg
	}
	if err := b.vm.Set("__args", b.vm.NewArray(jsArgs...)); err != nil {
		return nil, err
	}
	if err := b.vm.Set("document", b.documentObject()); err != nil {
		return nil, err
	}

	type result struct {
		value goja.Value
		err   error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("panic during script execution: %v", r)}
			}
		}()
		v, err := b.vm.RunString("(function(){\n" + script + "\n}).apply(null, __args)")
		done <- result{value: v, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		b.vm.Interrupt(ctx.Err())
		<-done
		return nil, ctx.Err()
	}

	if res.err != nil {
		var exception *goja.Exception
		if errors.As(res.err, &exception) {
			return nil, fmt.Errorf("javascript error: %s", exception.Value())
		}
		return nil, fmt.Errorf("javascript error: %w", res.err)
	}
	return b.export(res.value), nil
}

// scriptBridge maps document elements to goja objects and back for one script run
type scriptBridge struct {
	session *DocumentSession
	vm      *goja.Runtime
	objects map[*goja.Object]*documentElement
}

func (b *scriptBridge) object(el *documentElement) *goja.Object {
	for obj, known := range b.objects {
		if known.node == el.node {
			return obj
		}
	}

	obj := b.vm.NewObject()
	n := el.node
	_ = obj.Set("tagName", strings.ToUpper(n.Data))
	_ = obj.Set("id", attr(n, "id"))
	_ = obj.Set("className", attr(n, "class"))
	_ = obj.Set("textContent", textContent(n))
	_ = obj.Set("getAttribute", func(name string) any {
		if !hasAttr(n, name) {
			return nil
		}
		return attr(n, name)
	})
	_ = obj.Set("setAttribute", func(name, value string) {
		setAttr(n, name, value)
	})
	_ = obj.Set("removeAttribute", func(name string) {
		removeAttr(n, name)
	})
	_ = obj.Set("querySelector", func(css string) any {
		return b.first(el.doc, n, css)
	})
	_ = obj.Set("querySelectorAll", func(css string) any {
		return b.all(el.doc, n, css)
	})
	b.objects[obj] = el
	return obj
}

func (b *scriptBridge) documentObject() *goja.Object {
	doc := b.session.current
	obj := b.vm.NewObject()
	_ = obj.Set("URL", doc.url)
	_ = obj.Set("getElementById", func(id string) any {
		found := filterDescendants(doc.root, func(n *html.Node) bool { return attr(n, "id") == id })
		if len(found) == 0 {
			return nil
		}
		return b.object(&documentElement{session: b.session, doc: doc, node: found[0]})
	})
	_ = obj.Set("querySelector", func(css string) any {
		return b.first(doc, doc.root, css)
	})
	_ = obj.Set("querySelectorAll", func(css string) any {
		return b.all(doc, doc.root, css)
	})
	return obj
}

func (b *scriptBridge) all(doc *document, scope *html.Node, css string) *goja.Object {
	selector, err := cascadia.Compile(css)
	if err != nil {
		panic(b.vm.NewTypeError("invalid selector %q: %v", css, err))
	}
	matches := selector.MatchAll(scope)
	items := make([]any, 0, len(matches))
	for _, n := range matches {
		if n == scope {
			continue
		}
		items = append(items, b.object(&documentElement{session: b.session, doc: doc, node: n}))
	}
	return b.vm.NewArray(items...)
}

func (b *scriptBridge) first(doc *document, scope *html.Node, css string) any {
	found := b.all(doc, scope, css)
	if found.Get("length").ToInteger() == 0 {
		return nil
	}
	return found.Get("0")
}

// export turns a script result into Go values, mapping element objects back to elements
func (b *scriptBridge) export(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return v.Export()
	}
	if el, known := b.objects[obj]; known {
		return el
	}
	if obj.ClassName() == "Array" {
		n := int(obj.Get("length").ToInteger())
		out := make([]any, n)
		for i := 0; i < n; i++ {
			out[i] = b.export(obj.Get(fmt.Sprint(i)))
		}
		return out
	}
	return obj.Export()
}
