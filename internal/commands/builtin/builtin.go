// Package builtin provides the compiled-in scene commands. They double as
// the reference implementations of the command contract: undoable
// mutations capture prior state in Do and restore it in Undo.
package builtin

import (
	"context"
	"fmt"

	"github.com/dccforge/go_dcc/internal/command"
	"github.com/dccforge/go_dcc/internal/plugins"
	"github.com/dccforge/go_dcc/internal/scene"
)

// Version is the version every built-in command registers under.
const Version = "1.0.0"

// Register publishes the built-in scene commands to the manager through a
// static source.
func Register(mgr *plugins.Manager, scn *scene.Scene) error {
	src := plugins.NewStaticSource("builtin",
		plugins.CommandRegistration(
			"scene.createNode", Version,
			"Create a node with the given name and type.",
			func() command.Command { return &createNode{scene: scn} },
		),
		plugins.CommandRegistration(
			"scene.deleteNode", Version,
			"Delete a node, remembering its attributes for undo.",
			func() command.Command { return &deleteNode{scene: scn} },
		),
		plugins.CommandRegistration(
			"scene.renameNode", Version,
			"Rename a node.",
			func() command.Command { return &renameNode{scene: scn} },
		),
		plugins.CommandRegistration(
			"scene.setAttribute", Version,
			"Set an attribute on a node, remembering the prior value.",
			func() command.Command { return &setAttribute{scene: scn} },
		),
		plugins.CommandRegistration(
			"scene.listNodes", Version,
			"List the names of all nodes in the scene.",
			func() command.Command { return &listNodes{scene: scn} },
		),
	)

	return mgr.RegisterSource(src)
}

type createNode struct {
	command.Base
	scene *scene.Scene

	name string
}

func (c *createNode) ID() string { return "scene.createNode" }

func (c *createNode) Description() string {
	return "Create a node with the given name and type."
}

func (c *createNode) Undoable() bool { return true }

func (c *createNode) Schema() []command.ArgSpec {
	return []command.ArgSpec{
		{Name: "name", Default: "node", Validate: nonEmptyString("name")},
		{Name: "type", Default: "transform"},
	}
}

func (c *createNode) Do(_ context.Context, args *command.Arguments) (any, error) {
	name := args.GetString("name")
	if err := c.scene.CreateNode(name, map[string]any{
		"type": args.GetString("type"),
	}); err != nil {
		return nil, err
	}
	c.name = name

	return name, nil
}

func (c *createNode) Undo(context.Context) error {
	_, err := c.scene.DeleteNode(c.name)

	return err
}

type deleteNode struct {
	command.Base
	scene *scene.Scene

	name  string
	attrs map[string]any
}

func (c *deleteNode) ID() string { return "scene.deleteNode" }

func (c *deleteNode) Description() string {
	return "Delete a node, remembering its attributes for undo."
}

func (c *deleteNode) Undoable() bool { return true }

func (c *deleteNode) Schema() []command.ArgSpec {
	return []command.ArgSpec{
		{Name: "name", Default: "", Validate: nonEmptyString("name")},
	}
}

func (c *deleteNode) Resolve(args *command.Arguments) error {
	if args.GetString("name") == "" {
		c.DisplayWarning("no node name given, nothing to delete")
	}

	return nil
}

func (c *deleteNode) Do(_ context.Context, args *command.Arguments) (any, error) {
	name := args.GetString("name")
	attrs, err := c.scene.DeleteNode(name)
	if err != nil {
		return nil, err
	}
	c.name = name
	c.attrs = attrs

	return name, nil
}

func (c *deleteNode) Undo(context.Context) error {
	return c.scene.CreateNode(c.name, c.attrs)
}

type renameNode struct {
	command.Base
	scene *scene.Scene

	from string
	to   string
}

func (c *renameNode) ID() string { return "scene.renameNode" }

func (c *renameNode) Description() string { return "Rename a node." }

func (c *renameNode) Undoable() bool { return true }

func (c *renameNode) Schema() []command.ArgSpec {
	return []command.ArgSpec{
		{Name: "from", Default: "", Validate: nonEmptyString("from")},
		{Name: "to", Default: "", Validate: nonEmptyString("to")},
	}
}

func (c *renameNode) Do(_ context.Context, args *command.Arguments) (any, error) {
	from, to := args.GetString("from"), args.GetString("to")
	if err := c.scene.RenameNode(from, to); err != nil {
		return nil, err
	}
	c.from = from
	c.to = to

	return to, nil
}

func (c *renameNode) Undo(context.Context) error {
	return c.scene.RenameNode(c.to, c.from)
}

type setAttribute struct {
	command.Base
	scene *scene.Scene

	node  string
	attr  string
	prior any
	had   bool
}

func (c *setAttribute) ID() string { return "scene.setAttribute" }

func (c *setAttribute) Description() string {
	return "Set an attribute on a node, remembering the prior value."
}

func (c *setAttribute) Undoable() bool { return true }

func (c *setAttribute) Schema() []command.ArgSpec {
	return []command.ArgSpec{
		{Name: "node", Default: "", Validate: nonEmptyString("node")},
		{Name: "attribute", Default: "", Validate: nonEmptyString("attribute")},
		{Name: "value", Default: ""},
	}
}

func (c *setAttribute) Do(_ context.Context, args *command.Arguments) (any, error) {
	node := args.GetString("node")
	attr := args.GetString("attribute")
	value := args.Get("value")
	prior, had, err := c.scene.SetAttribute(node, attr, value)
	if err != nil {
		return nil, err
	}
	c.node = node
	c.attr = attr
	c.prior = prior
	c.had = had

	return value, nil
}

func (c *setAttribute) Undo(context.Context) error {
	if !c.had {
		return c.scene.UnsetAttribute(c.node, c.attr)
	}
	_, _, err := c.scene.SetAttribute(c.node, c.attr, c.prior)

	return err
}

type listNodes struct {
	command.Base
	scene *scene.Scene
}

func (c *listNodes) ID() string { return "scene.listNodes" }

func (c *listNodes) Description() string {
	return "List the names of all nodes in the scene."
}

func (c *listNodes) Do(context.Context, *command.Arguments) (any, error) {
	return c.scene.Names(), nil
}

func nonEmptyString(name string) func(any) error {
	return func(value any) error {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%s must be a string", name)
		}
		if s == "" {
			return fmt.Errorf("%s must not be empty", name)
		}

		return nil
	}
}
