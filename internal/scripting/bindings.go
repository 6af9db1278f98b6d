package scripting

import (
	"github.com/dop251/goja"

	"github.com/starford/laguz/internal/models"
)

type method = func(call goja.FunctionCall) goja.Value

func strArg(call goja.FunctionCall, i int) string {
	v := call.Argument(i)
	if goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	return v.String()
}

// getters are shared by the read-only origin view and the mutable note object.
func getters(vm *goja.Runtime, n *models.Note) map[string]method {
	return map[string]method{
		"getTitle":   func(goja.FunctionCall) goja.Value { return vm.ToValue(n.Title) },
		"getContent": func(goja.FunctionCall) goja.Value { return vm.ToValue(n.Content) },
		"hasLabel": func(c goja.FunctionCall) goja.Value {
			return vm.ToValue(n.HasLabel(strArg(c, 0)))
		},
		"getLabelValue": func(c goja.FunctionCall) goja.Value {
			return vm.ToValue(n.LabelValue(strArg(c, 0)))
		},
		"getLabelValues": func(c goja.FunctionCall) goja.Value {
			var out []string
			for _, l := range n.Labels(strArg(c, 0)) {
				out = append(out, l.Value)
			}
			return vm.ToValue(out)
		},
		"getRelationTarget": func(c goja.FunctionCall) goja.Value {
			return vm.ToValue(n.RelationTarget(strArg(c, 0)))
		},
	}
}

func baseObject(vm *goja.Runtime, n *models.Note) (*goja.Object, error) {
	obj := vm.NewObject()
	if err := obj.Set("noteId", n.ID); err != nil {
		return nil, err
	}
	if err := obj.Set("type", n.Type); err != nil {
		return nil, err
	}
	for name, fn := range getters(vm, n) {
		if err := obj.Set(name, fn); err != nil {
			return nil, err
		}
	}
	title := vm.ToValue(func(goja.FunctionCall) goja.Value { return vm.ToValue(n.Title) })
	if err := obj.DefineAccessorProperty("title", title, nil, goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
		return nil, err
	}
	return obj, nil
}

// readOnlyView exposes n without any mutation primitive and freezes the object.
func readOnlyView(vm *goja.Runtime, n *models.Note) (*goja.Object, error) {
	if n == nil {
		return nil, nil
	}
	obj, err := baseObject(vm, n)
	if err != nil {
		return nil, err
	}
	freeze, ok := goja.AssertFunction(vm.Get("Object").ToObject(vm).Get("freeze"))
	if ok {
		if _, err := freeze(goja.Undefined(), obj); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

// noteObject exposes n with the note-mutation primitives only.
func noteObject(vm *goja.Runtime, n *models.Note) (*goja.Object, error) {
	obj, err := baseObject(vm, n)
	if err != nil {
		return nil, err
	}
	mutators := map[string]method{
		"setLabel": func(c goja.FunctionCall) goja.Value {
			n.SetLabel(strArg(c, 0), strArg(c, 1))
			return goja.Undefined()
		},
		"removeLabel": func(c goja.FunctionCall) goja.Value {
			n.RemoveLabel(strArg(c, 0))
			return goja.Undefined()
		},
		"setRelation": func(c goja.FunctionCall) goja.Value {
			n.SetRelation(strArg(c, 0), strArg(c, 1))
			return goja.Undefined()
		},
		"removeRelation": func(c goja.FunctionCall) goja.Value {
			n.RemoveRelation(strArg(c, 0))
			return goja.Undefined()
		},
		"setTitle": func(c goja.FunctionCall) goja.Value {
			n.SetTitle(strArg(c, 0))
			return goja.Undefined()
		},
		"setContent": func(c goja.FunctionCall) goja.Value {
			n.SetContent(strArg(c, 0))
			return goja.Undefined()
		},
	}
	for name, fn := range mutators {
		if err := obj.Set(name, fn); err != nil {
			return nil, err
		}
	}
	return obj, nil
}
