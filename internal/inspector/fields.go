package inspector

import (
	"context"
	"fmt"

	"github.com/NicolasVautrin/mcp-jdwp-java/internal/jdwp"
	"github.com/NicolasVautrin/mcp-jdwp-java/internal/objcache"
)

// Array rendering and collection-view caps (spec.md sections 4.2, 8).
const (
	maxArrayElements = 100
	maxListElements  = 50
	maxMapEntries    = 50
)

// FieldEntry is one rendered {name, value} pair, used for both raw
// declared/inherited fields and a collection's internal fields.
type FieldEntry struct {
	Name  string
	Value string
}

// FieldsResult is the get-fields response. Exactly one of the three shapes
// below is populated depending on what objectId turns out to be: an
// array, a recognized collection, or a plain object.
type FieldsResult struct {
	IsArray        bool
	ArrayElements  []string
	ArrayRemainder int

	IsCollection   bool
	CollectionKind string
	Size           int
	ListElements   []string
	MapEntries     []string
	RawFields      []FieldEntry

	Fields []FieldEntry
}

// knownCollectionSignatures maps a declared class name to the semantic
// shape spec.md's rendering rules ask for: dynamic array (ArrayList/
// LinkedList), doubly-linked hash map (LinkedHashMap) or plain hash/tree
// map, hash set or tree set.
var knownCollectionSignatures = map[string]string{
	"java.util.ArrayList":     "list",
	"java.util.LinkedList":    "list",
	"java.util.LinkedHashMap": "map",
	"java.util.HashMap":       "map",
	"java.util.TreeMap":       "map",
	"java.util.LinkedHashSet": "set",
	"java.util.HashSet":       "set",
	"java.util.TreeSet":       "set",
}

// GetFields implements spec.md's get-fields operation.
func (in *Inspector) GetFields(ctx context.Context, objectID jdwp.ObjectID) (*FieldsResult, error) {
	client, err := in.sess.Client(ctx)
	if err != nil {
		return nil, err
	}
	cache := in.sess.Cache()

	if _, err := cache.Resolve(ctx, client, objectID); err != nil {
		return nil, err
	}

	tag, rt, err := client.ObjectReferenceType(ctx, objectID)
	if err != nil {
		return nil, err
	}

	if tag == jdwp.TagArray {
		return in.renderArrayFields(ctx, client, objectID)
	}

	className := DeclaredTypeName(ctx, client, rt)
	if kind, ok := knownCollectionSignatures[className]; ok {
		return in.renderCollectionFields(ctx, client, cache, objectID, rt, kind)
	}

	fields, err := in.renderAllFields(ctx, client, cache, objectID, rt)
	if err != nil {
		return nil, err
	}
	return &FieldsResult{Fields: fields}, nil
}

func (in *Inspector) renderArrayFields(ctx context.Context, client *jdwp.Client, arr jdwp.ObjectID) (*FieldsResult, error) {
	length, err := client.ArrayLength(ctx, arr)
	if err != nil {
		return nil, err
	}
	n := length
	capped := false
	if n > maxArrayElements {
		n = maxArrayElements
		capped = true
	}
	values, err := client.ArrayGetValues(ctx, arr, 0, n)
	if err != nil {
		return nil, err
	}
	cache := in.sess.Cache()
	elems := make([]string, 0, len(values))
	for _, v := range values {
		elems = append(elems, in.render(ctx, client, cache, v))
	}
	res := &FieldsResult{IsArray: true, ArrayElements: elems}
	if capped {
		res.ArrayRemainder = int(length) - maxArrayElements
	}
	return res, nil
}

// renderCollectionFields dispatches to the shape-specific traversal, then
// always appends the raw declared+inherited fields after the semantic
// view (spec.md section 4.2: "a semantic view ... followed by raw
// internal fields").
func (in *Inspector) renderCollectionFields(ctx context.Context, client *jdwp.Client, cache *objcache.Cache, obj jdwp.ObjectID, rt jdwp.ReferenceTypeID, kind string) (*FieldsResult, error) {
	res := &FieldsResult{IsCollection: true, CollectionKind: kind}

	switch kind {
	case "list":
		size, elems, err := in.traverseList(ctx, client, cache, obj, rt)
		if err == nil {
			res.Size = size
			res.ListElements = elems
		}
	case "map":
		size, entries, err := in.traverseMap(ctx, client, cache, obj, rt)
		if err == nil {
			res.Size = size
			res.MapEntries = entries
		}
	case "set":
		size, elems, err := in.traverseSet(ctx, client, cache, obj, rt)
		if err == nil {
			res.Size = size
			res.ListElements = elems
		}
	}

	raw, err := in.renderAllFields(ctx, client, cache, obj, rt)
	if err == nil {
		res.RawFields = raw
	}
	return res, nil
}

// traverseList reads ArrayList's backing "elementData" object array and
// its "size" field (spec.md: "dynamic array uses backing element array").
// A list without an elementData field, such as LinkedList, reports its
// size with no elements listed.
func (in *Inspector) traverseList(ctx context.Context, client *jdwp.Client, cache *objcache.Cache, obj jdwp.ObjectID, rt jdwp.ReferenceTypeID) (int, []string, error) {
	sizeVal, err := fieldByName(ctx, client, obj, rt, "size")
	if err != nil {
		return 0, nil, err
	}
	size := int(sizeVal.I)

	backingVal, err := fieldByName(ctx, client, obj, rt, "elementData")
	if err != nil || backingVal.Obj == 0 {
		return size, nil, nil
	}

	n := int32(size)
	if n > maxListElements {
		n = maxListElements
	}
	values, err := client.ArrayGetValues(ctx, backingVal.Obj, 0, n)
	if err != nil {
		return size, nil, err
	}
	elems := make([]string, 0, len(values))
	for _, v := range values {
		elems = append(elems, in.render(ctx, client, cache, v))
	}
	return size, elems, nil
}

// traverseMap renders entries in insertion order for LinkedHashMap by
// walking head -> after, walks a TreeMap's red-black tree in order from
// its root, and falls back to a bucket-table walk (table[i] -> next) for
// plain HashMap, matching spec.md's "map uses head then after/next chain."
func (in *Inspector) traverseMap(ctx context.Context, client *jdwp.Client, cache *objcache.Cache, obj jdwp.ObjectID, rt jdwp.ReferenceTypeID) (int, []string, error) {
	sizeVal, err := fieldByName(ctx, client, obj, rt, "size")
	size := 0
	if err == nil {
		size = int(sizeVal.I)
	}

	if head, herr := fieldByName(ctx, client, obj, rt, "head"); herr == nil && head.Obj != 0 {
		entries := in.walkChain(ctx, client, cache, head.Obj, "after", maxMapEntries)
		return size, entries, nil
	}

	if root, rerr := fieldByName(ctx, client, obj, rt, "root"); rerr == nil && root.Obj != 0 {
		entries := in.walkTreeInOrder(ctx, client, cache, root.Obj, maxMapEntries)
		return size, entries, nil
	}

	table, terr := fieldByName(ctx, client, obj, rt, "table")
	if terr != nil || table.Obj == 0 {
		return size, nil, terr
	}
	entries := in.walkBuckets(ctx, client, cache, table.Obj, maxMapEntries)
	return size, entries, nil
}

// traverseSet renders a HashSet/LinkedHashSet/TreeSet by reaching into its
// inner backing map field ("map" for hash-backed sets, "m" for TreeSet's
// NavigableMap) and rendering only its keys (spec.md: "set uses inner
// map").
func (in *Inspector) traverseSet(ctx context.Context, client *jdwp.Client, cache *objcache.Cache, obj jdwp.ObjectID, rt jdwp.ReferenceTypeID) (int, []string, error) {
	inner, err := fieldByName(ctx, client, obj, rt, "map")
	if err != nil || inner.Obj == 0 {
		inner, err = fieldByName(ctx, client, obj, rt, "m")
	}
	if err != nil || inner.Obj == 0 {
		return 0, nil, err
	}

	_, innerRT, rterr := client.ObjectReferenceType(ctx, inner.Obj)
	if rterr != nil {
		return 0, nil, rterr
	}
	size, entries, merr := in.traverseMap(ctx, client, cache, inner.Obj, innerRT)
	if merr != nil {
		return size, nil, merr
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, keyFromEntryRender(e))
	}
	return size, keys, nil
}

func keyFromEntryRender(entry string) string {
	for i := len(entry) - 1; i >= 0; i-- {
		if entry[i] == '=' && i > 0 && entry[i-1] == ' ' {
			return entry[:i-1]
		}
	}
	return entry
}

// walkChain follows obj.<nextField> until the link is null, a node's
// fields cannot be read, or cap entries have been collected, rendering
// each node's key/value pair as `"key" = value`.
func (in *Inspector) walkChain(ctx context.Context, client *jdwp.Client, cache *objcache.Cache, head jdwp.ObjectID, nextField string, cap int) []string {
	out := make([]string, 0, cap)
	current := head
	for current != 0 && len(out) < cap {
		_, rt, err := client.ObjectReferenceType(ctx, current)
		if err != nil {
			break
		}
		keyVal, kerr := fieldByName(ctx, client, current, rt, "key")
		valVal, verr := fieldByName(ctx, client, current, rt, "value")
		if kerr != nil || verr != nil {
			break
		}
		out = append(out, fmt.Sprintf("%s = %s", in.render(ctx, client, cache, keyVal), in.render(ctx, client, cache, valVal)))

		nextVal, nerr := fieldByName(ctx, client, current, rt, nextField)
		if nerr != nil || nextVal.Obj == 0 {
			break
		}
		current = nextVal.Obj
	}
	return out
}

// walkBuckets iterates a HashMap-style bucket array and, for each
// non-empty bucket, follows its collision chain via "next".
func (in *Inspector) walkBuckets(ctx context.Context, client *jdwp.Client, cache *objcache.Cache, table jdwp.ObjectID, cap int) []string {
	length, err := client.ArrayLength(ctx, table)
	if err != nil {
		return nil
	}
	out := make([]string, 0, cap)
	for i := int32(0); i < length && len(out) < cap; i++ {
		vals, err := client.ArrayGetValues(ctx, table, i, 1)
		if err != nil || len(vals) == 0 || vals[0].Obj == 0 {
			continue
		}
		out = append(out, in.walkChain(ctx, client, cache, vals[0].Obj, "next", cap-len(out))...)
	}
	return out
}

// walkTreeInOrder does an in-order traversal of a TreeMap's red-black
// tree (left -> node -> right), rendering `"key" = value` for each node.
func (in *Inspector) walkTreeInOrder(ctx context.Context, client *jdwp.Client, cache *objcache.Cache, root jdwp.ObjectID, cap int) []string {
	var out []string
	var visit func(node jdwp.ObjectID)
	visit = func(node jdwp.ObjectID) {
		if node == 0 || len(out) >= cap {
			return
		}
		_, rt, err := client.ObjectReferenceType(ctx, node)
		if err != nil {
			return
		}
		if left, lerr := fieldByName(ctx, client, node, rt, "left"); lerr == nil {
			visit(left.Obj)
		}
		if len(out) >= cap {
			return
		}
		keyVal, kerr := fieldByName(ctx, client, node, rt, "key")
		valVal, verr := fieldByName(ctx, client, node, rt, "value")
		if kerr == nil && verr == nil {
			out = append(out, fmt.Sprintf("%s = %s", in.render(ctx, client, cache, keyVal), in.render(ctx, client, cache, valVal)))
		}
		if right, rerr := fieldByName(ctx, client, node, rt, "right"); rerr == nil {
			visit(right.Obj)
		}
	}
	visit(root)
	return out
}

// renderAllFields collects every declared and inherited field (walking
// ClassTypeSuperclass up to java.lang.Object) and renders each value.
func (in *Inspector) renderAllFields(ctx context.Context, client *jdwp.Client, cache *objcache.Cache, obj jdwp.ObjectID, rt jdwp.ReferenceTypeID) ([]FieldEntry, error) {
	var infos []jdwp.FieldInfo
	var owners []jdwp.ReferenceTypeID

	current := rt
	visited := map[jdwp.ReferenceTypeID]bool{}
	for current != 0 && !visited[current] {
		visited[current] = true
		fields, err := client.ReferenceTypeFields(ctx, current)
		if err != nil {
			break
		}
		for _, f := range fields {
			infos = append(infos, f)
			owners = append(owners, current)
		}
		super, err := client.ClassTypeSuperclass(ctx, current)
		if err != nil || super == 0 {
			break
		}
		current = super
	}

	if len(infos) == 0 {
		return nil, nil
	}

	ids := make([]jdwp.FieldID, len(infos))
	for i, f := range infos {
		ids[i] = f.ID
	}
	values, err := client.ObjectGetValues(ctx, obj, ids)
	if err != nil {
		return nil, err
	}

	out := make([]FieldEntry, 0, len(infos))
	for i, f := range infos {
		out = append(out, FieldEntry{Name: f.Name, Value: in.render(ctx, client, cache, values[i])})
	}
	return out, nil
}

// fieldByName resolves and reads one named field, walking the superclass
// chain from rt until it is found.
func fieldByName(ctx context.Context, client *jdwp.Client, obj jdwp.ObjectID, rt jdwp.ReferenceTypeID, name string) (jdwp.Value, error) {
	current := rt
	visited := map[jdwp.ReferenceTypeID]bool{}
	for current != 0 && !visited[current] {
		visited[current] = true
		fields, err := client.ReferenceTypeFields(ctx, current)
		if err == nil {
			for _, f := range fields {
				if f.Name == name {
					values, err := client.ObjectGetValues(ctx, obj, []jdwp.FieldID{f.ID})
					if err != nil || len(values) == 0 {
						return jdwp.Value{}, err
					}
					return values[0], nil
				}
			}
		}
		super, err := client.ClassTypeSuperclass(ctx, current)
		if err != nil || super == 0 {
			break
		}
		current = super
	}
	return jdwp.Value{}, fmt.Errorf("field %q not found", name)
}
