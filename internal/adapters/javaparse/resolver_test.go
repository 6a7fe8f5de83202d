package javaparse_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/lathe/internal/adapters/javaparse"
	"go.trai.ch/lathe/internal/core/domain"
)

// world is an in-memory source path keyed by qualified top-level type name.
type world map[string]*domain.UnitProvider

func newWorld(sources map[string]string) world {
	w := world{}
	for qname, src := range sources {
		w.add(qname, src)
	}
	w.add("java.lang.Object", "package java.lang; public class Object {}")
	w.add("java.lang.String", "package java.lang; public final class String {}")
	w.add("java.lang.Integer", "package java.lang; public final class Integer {}")
	w.add("java.lang.Exception", "package java.lang; public class Exception {}")
	w.add("java.lang.Deprecated", "package java.lang; public @interface Deprecated {}")
	return w
}

func (w world) add(qname, src string) *domain.UnitProvider {
	if p, ok := w[qname]; ok {
		return p
	}
	pkg, _ := domain.SplitQualified(qname)
	loc := strings.ReplaceAll(qname, ".", "/") + domain.SourceExt
	p := domain.NewSourceUnit(loc, pkg, qname, time.Unix(100, 0), src)
	w[qname] = p
	return p
}

func (w world) lookup(qname string) (*domain.UnitProvider, bool) {
	p, ok := w[qname]
	return p, ok
}

func resolveOne(t *testing.T, w world, qname string) *domain.ResolvedUnit {
	t.Helper()
	units, err := javaparse.NewResolver().Resolve(context.Background(), []*domain.UnitProvider{w[qname]}, w.lookup)
	require.NoError(t, err)
	require.Len(t, units, 1)
	return units[0]
}

func messages(u *domain.ResolvedUnit) []string {
	var out []string
	for _, d := range u.Diagnostics {
		out = append(out, d.Message)
	}
	return out
}

func findDecl(t *testing.T, u *domain.ResolvedUnit, qname string) *domain.TypeDecl {
	t.Helper()
	for d := range u.Decls() {
		if d.QualifiedName == qname {
			return d
		}
	}
	t.Fatalf("declaration %s not found", qname)
	return nil
}

func TestResolve_ClassMembers(t *testing.T) {
	t.Parallel()
	w := newWorld(map[string]string{
		"a.Base": "package a; public abstract class Base {}",
		"a.Shape": `package a;

public interface Shape {
	double area();
}`,
		"a.Circle": `package a;

import java.util.List;

/** A circle. */
public final class Circle extends Base implements Shape {
	private static final int SIDES = 0;
	protected double radius, cache[];

	public Circle(double radius) {
		this.radius = radius;
	}

	/** Area of the circle. */
	public double area() { return 0; }

	String[] names(int count, String... rest) throws Exception { return null; }
}`,
	})
	u := resolveOne(t, w, "a.Circle")

	assert.Contains(t, messages(u), "The import java.util.List cannot be resolved")
	require.Len(t, u.Types, 1)
	c := u.Types[0]
	assert.Equal(t, domain.DeclClass, c.Kind)
	assert.Equal(t, "a.Circle", c.QualifiedName)
	assert.Equal(t, "a.Circle", c.BinaryName)
	assert.Equal(t, "a", c.Package)
	assert.True(t, c.Modifiers.Has(domain.ModPublic|domain.ModFinal))
	assert.Equal(t, "/** A circle. */", c.Doc)
	assert.Equal(t, "a.Base", c.Superclass.Name)
	require.Len(t, c.Interfaces, 1)
	assert.Equal(t, "a.Shape", c.Interfaces[0].Name)

	require.Len(t, c.Fields, 3)
	assert.Equal(t, "SIDES", c.Fields[0].Name)
	assert.Equal(t, domain.PrimitiveRef("int").Name, c.Fields[0].Type.Name)
	assert.True(t, c.Fields[0].Modifiers.Has(domain.ModPrivate|domain.ModStatic|domain.ModFinal))
	assert.Equal(t, "radius", c.Fields[1].Name)
	assert.Equal(t, domain.RefPrimitive, c.Fields[1].Type.Kind)
	assert.Equal(t, "cache", c.Fields[2].Name)
	assert.Equal(t, domain.RefArray, c.Fields[2].Type.Kind)
	assert.Equal(t, 1, c.Fields[2].Type.Dims)

	require.Len(t, c.Methods, 3)
	ctor := c.Methods[0]
	assert.True(t, ctor.Constructor)
	assert.Equal(t, "Circle", ctor.Name)
	require.Len(t, ctor.Params, 1)
	assert.Equal(t, "radius", ctor.Params[0].Name)

	area := c.Methods[1]
	assert.Equal(t, "area", area.Name)
	assert.Equal(t, "double", area.Return.Name)
	assert.Equal(t, "/** Area of the circle. */", area.Doc)

	names := c.Methods[2]
	assert.Equal(t, domain.RefArray, names.Return.Kind)
	assert.Equal(t, "java.lang.String", names.Return.Elem.Name)
	require.Len(t, names.Params, 2)
	assert.False(t, names.Params[0].Varargs)
	assert.True(t, names.Params[1].Varargs)
	assert.Equal(t, domain.RefArray, names.Params[1].Type.Kind)
	require.Len(t, names.Throws, 1)
	assert.Equal(t, "java.lang.Exception", names.Throws[0].Name)
}

func TestResolve_Generics(t *testing.T) {
	t.Parallel()
	w := newWorld(map[string]string{
		"a.Box": `package a;

public class Box<T extends Comparable<T>> {
	T value;
	java.util.Map<String, ? extends T> index;
	<R> R map(Box<? super T> other) { return null; }
}`,
		"a.Comparable": "package a; public interface Comparable<T> {}",
		"java.util.Map": "package java.util; public interface Map<K, V> {}",
	})
	u := resolveOne(t, w, "a.Box")
	assert.Empty(t, u.Diagnostics)

	box := u.Types[0]
	require.Len(t, box.TypeParams, 1)
	assert.Equal(t, "T", box.TypeParams[0].Name)
	require.Len(t, box.TypeParams[0].Bounds, 1)
	bound := box.TypeParams[0].Bounds[0]
	assert.Equal(t, domain.RefParameterized, bound.Kind)
	assert.Equal(t, "a.Comparable", bound.Name)
	assert.Equal(t, domain.RefTypeVar, bound.Args[0].Kind)
	assert.Equal(t, "a.Box", bound.Args[0].Owner)

	value := box.Fields[0].Type
	assert.Equal(t, domain.RefTypeVar, value.Kind)
	assert.Equal(t, "T", value.Name)

	index := box.Fields[1].Type
	assert.Equal(t, "java.util.Map", index.Name)
	require.Len(t, index.Args, 2)
	assert.Equal(t, "java.lang.String", index.Args[0].Name)
	assert.Equal(t, domain.RefWildcard, index.Args[1].Kind)
	assert.Equal(t, domain.BoundExtends, index.Args[1].Bound)
	assert.Equal(t, domain.RefTypeVar, index.Args[1].Elem.Kind)

	m := box.Methods[0]
	require.Len(t, m.TypeParams, 1)
	assert.Equal(t, domain.RefTypeVar, m.Return.Kind)
	assert.Equal(t, box.MethodOwner(0), m.Return.Owner)
	arg := m.Params[0].Type.Args[0]
	assert.Equal(t, domain.BoundSuper, arg.Bound)
	assert.Equal(t, "a.Box", arg.Elem.Owner)
}

func TestResolve_NestedAndInheritedMemberTypes(t *testing.T) {
	t.Parallel()
	w := newWorld(map[string]string{
		"a.Outer": `package a;

public class Outer extends b.Parent {
	static class Inner {
		Entry entry;
	}
	Inner inner;
	Outer.Inner again;

	void run() {
		class Local {}
	}
}`,
		"b.Parent": `package b;

public class Parent {
	public interface Entry {}
}`,
	})
	u := resolveOne(t, w, "a.Outer")
	assert.Empty(t, u.Diagnostics)

	outer := u.Types[0]
	assert.Equal(t, "b.Parent", outer.Superclass.Name)
	assert.Equal(t, "a.Outer.Inner", outer.Fields[0].Type.Name)
	assert.Equal(t, "a.Outer.Inner", outer.Fields[1].Type.Name)

	inner := findDecl(t, u, "a.Outer.Inner")
	assert.Equal(t, "a.Outer$Inner", inner.BinaryName)
	assert.Equal(t, "a.Outer", inner.Enclosing)
	assert.True(t, inner.Modifiers.Has(domain.ModStatic))
	assert.Equal(t, "b.Parent.Entry", inner.Fields[0].Type.Name)

	local := findDecl(t, u, "a.Outer$1Local")
	assert.True(t, local.Local)
	assert.Equal(t, "a.Outer$1Local", local.BinaryName)
}

func TestResolve_ImportsAndLookup(t *testing.T) {
	t.Parallel()
	w := newWorld(map[string]string{
		"a.App": `package a;

import b.Single;
import c.*;

class App {
	Single s;
	OnDemand d;
	Sibling x;
}`,
		"a.Sibling":  "package a; class Sibling {}",
		"b.Single":   "package b; public class Single {}",
		"c.OnDemand": "package c; public class OnDemand {}",
	})
	u := resolveOne(t, w, "a.App")
	assert.Empty(t, u.Diagnostics)

	app := u.Types[0]
	assert.Equal(t, "b.Single", app.Fields[0].Type.Name)
	assert.Equal(t, "c.OnDemand", app.Fields[1].Type.Name)
	assert.Equal(t, "a.Sibling", app.Fields[2].Type.Name)
}

func TestResolve_UnresolvedType(t *testing.T) {
	t.Parallel()
	w := newWorld(map[string]string{
		"a.Broken": `package a;

class Broken {
	Missing field;
	Missing again;
}`,
	})
	u := resolveOne(t, w, "a.Broken")

	assert.True(t, u.HasErrors())
	assert.Equal(t, []string{"Missing cannot be resolved to a type", "Missing cannot be resolved to a type"}, messages(u))
	ref := u.Types[0].Fields[0].Type
	assert.True(t, ref.Unresolved)
	assert.Equal(t, domain.Position{Line: 4, Column: 2}, ref.Pos)
}

func TestResolve_EnumAndAnnotation(t *testing.T) {
	t.Parallel()
	w := newWorld(map[string]string{
		"a.Color": `package a;

@Deprecated
public enum Color {
	RED, GREEN;

	int code() { return 0; }
}`,
		"a.Marker": `package a;

public @interface Marker {
	String name() default "x";
	int size();
}`,
	})
	u := resolveOne(t, w, "a.Color")
	assert.Empty(t, u.Diagnostics)

	color := u.Types[0]
	assert.Equal(t, domain.DeclEnum, color.Kind)
	require.Len(t, color.Annotations, 1)
	assert.Equal(t, "java.lang.Deprecated", color.Annotations[0].Type.Name)
	require.Len(t, color.Fields, 2)
	assert.True(t, color.Fields[0].EnumConstant)
	assert.Equal(t, "RED", color.Fields[0].Name)
	assert.Equal(t, "a.Color", color.Fields[0].Type.Name)
	require.Len(t, color.Methods, 1)
	assert.Equal(t, "code", color.Methods[0].Name)

	marker := resolveOne(t, w, "a.Marker").Types[0]
	assert.Equal(t, domain.DeclAnnotation, marker.Kind)
	require.Len(t, marker.Methods, 2)
	assert.Equal(t, `"x"`, marker.Methods[0].Default)
	assert.Empty(t, marker.Methods[1].Default)
}

func TestResolve_PackageInfo(t *testing.T) {
	t.Parallel()
	w := newWorld(nil)
	p := domain.NewSourceUnit("a/package-info.java", "a", "a.package-info", time.Unix(1, 0), `
@Deprecated
package a;
`)
	units, err := javaparse.NewResolver().Resolve(context.Background(), []*domain.UnitProvider{p}, w.lookup)
	require.NoError(t, err)
	require.Len(t, units, 1)

	assert.Empty(t, units[0].Types)
	require.Len(t, units[0].PackageAnnotations, 1)
	assert.Equal(t, "java.lang.Deprecated", units[0].PackageAnnotations[0].Type.Name)
}

func TestResolve_SnippetsAndRebindSites(t *testing.T) {
	t.Parallel()
	w := newWorld(map[string]string{
		"a.Widget": `package a;

import com.google.gwt.core.client.GWT;

class Widget {
	private final Impl impl = GWT.create(Impl.class);

	native void show() /*-{
		this.@a.Widget::impl.show();
	}-*/;

	static class Impl {}
}`,
		"com.google.gwt.core.client.GWT": "package com.google.gwt.core.client; public final class GWT {}",
	})
	u := resolveOne(t, w, "a.Widget")
	assert.Empty(t, u.Diagnostics)

	require.Len(t, u.Snippets, 1)
	assert.Equal(t, "a.Widget#show", u.Snippets[0].Owner)
	assert.Contains(t, u.Snippets[0].Body, "this.@a.Widget::impl.show();")
	assert.Equal(t, domain.Position{Line: 8, Column: 25}, u.Snippets[0].Pos)

	require.Len(t, u.RebindSites, 1)
	assert.Equal(t, "a.Widget.Impl", u.RebindSites[0].Requested)
	assert.Equal(t, "a.Widget", u.RebindSites[0].Enclosing)
}

func TestResolve_SyntaxAndPackageErrors(t *testing.T) {
	t.Parallel()
	w := newWorld(map[string]string{
		"a.Bad": `package b;

class Bad {
	int x
}`,
	})
	u := resolveOne(t, w, "a.Bad")

	assert.True(t, u.HasErrors())
	msgs := messages(u)
	assert.Contains(t, msgs, `The declared package "b" does not match the expected package "a"`)
	assert.True(t, strings.HasPrefix(msgs[0], "Syntax error"), msgs[0])
}

func TestResolve_BatchSeesItself(t *testing.T) {
	t.Parallel()
	w := newWorld(map[string]string{
		"a.One": "package a; class One { Two two; }",
		"a.Two": "package a; class Two { One one; }",
	})
	noLookup := func(qname string) (*domain.UnitProvider, bool) {
		if strings.HasPrefix(qname, "a.") {
			return nil, false
		}
		return w.lookup(qname)
	}

	units, err := javaparse.NewResolver().Resolve(context.Background(),
		[]*domain.UnitProvider{w["a.One"], w["a.Two"]}, noLookup)
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Empty(t, units[0].Diagnostics)
	assert.Empty(t, units[1].Diagnostics)
	assert.Equal(t, "a.Two", units[0].Types[0].Fields[0].Type.Name)
	assert.Equal(t, "a.One", units[1].Types[0].Fields[0].Type.Name)
}

func TestResolve_Canceled(t *testing.T) {
	t.Parallel()
	w := newWorld(map[string]string{"a.One": "package a; class One {}"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := javaparse.NewResolver().Resolve(ctx, []*domain.UnitProvider{w["a.One"]}, w.lookup)
	require.ErrorIs(t, err, context.Canceled)
}

func TestResolve_UnreadableSource(t *testing.T) {
	t.Parallel()
	p := domain.NewUnitProvider("a/Gone.java", "a", "a.Gone", time.Unix(1, 0), func() ([]byte, error) {
		return nil, domain.ErrSourceReadFailed
	})
	units, err := javaparse.NewResolver().Resolve(context.Background(), []*domain.UnitProvider{p}, newWorld(nil).lookup)
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.True(t, units[0].HasErrors())
	assert.Empty(t, units[0].Types)
}
