package config

import (
	"fmt"
	"reflect"
	"strings"
)

// MergePolicy states how a field of a task record combines with the same field of
// its base task during inheritance.
type MergePolicy int

const (
	// Replace takes the child's value when set, otherwise the parent's.
	Replace MergePolicy = iota
	// ChildOnly always takes the child's value; the field is never inherited.
	ChildOnly
	// MergeMap updates the parent's map with the child's, unless the child's inherit flag is false.
	MergeMap
	// ConcatList appends the child's list to the parent's, unless the child's inherit flag is false.
	ConcatList
	// mainCommands combines main command lists according to the child's CommandsPolicy.
	mainCommands
	// nested merges a pointer-to-struct field with its own policy table.
	nested
)

var policyNames = map[string]MergePolicy{
	"replace":  Replace,
	"child":    ChildOnly,
	"map":      MergeMap,
	"concat":   ConcatList,
	"commands": mainCommands,
	"nested":   nested,
}

// fieldPolicy is one row of a policy table.
type fieldPolicy struct {
	index  int
	name   string
	policy MergePolicy
	// flag is the index of the *bool inherit flag (MergeMap, ConcatList) or of the
	// CommandsPolicy field (mainCommands); -1 when absent.
	flag  int
	table []fieldPolicy
}

var taskPolicies = mustPolicyTable(reflect.TypeOf(TaskDef{}))

// mustPolicyTable reads the merge tags of t. Malformed tags are programming errors.
func mustPolicyTable(t reflect.Type) []fieldPolicy {
	var table []fieldPolicy
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, ok := f.Tag.Lookup("merge")
		if !ok || tag == "-" {
			continue
		}
		kind, flagName, _ := strings.Cut(tag, ",")
		policy, known := policyNames[kind]
		if !known {
			panic(fmt.Sprintf("config: unknown merge policy %q on %s.%s", kind, t.Name(), f.Name))
		}
		row := fieldPolicy{index: i, name: f.Name, policy: policy, flag: -1}
		if flagName != "" {
			flagField, found := t.FieldByName(flagName)
			if !found {
				panic(fmt.Sprintf("config: merge flag %q not found on %s", flagName, t.Name()))
			}
			row.flag = flagField.Index[0]
		}
		if policy == nested {
			row.table = mustPolicyTable(f.Type.Elem())
		}
		table = append(table, row)
	}
	return table
}

// mergeDefs returns a new record combining parent and child under taskPolicies.
// Neither input is modified. The result carries no base reference.
func mergeDefs(parent, child *TaskDef) *TaskDef {
	out := &TaskDef{}
	mergeStruct(reflect.ValueOf(out).Elem(), reflect.ValueOf(parent).Elem(), reflect.ValueOf(child).Elem(), taskPolicies)
	return out
}

func mergeStruct(dst, parent, child reflect.Value, table []fieldPolicy) {
	for _, row := range table {
		d, p, c := dst.Field(row.index), parent.Field(row.index), child.Field(row.index)
		switch row.policy {
		case Replace:
			if !c.IsZero() {
				d.Set(c)
			} else {
				d.Set(p)
			}
		case ChildOnly:
			d.Set(c)
		case MergeMap:
			if inherits(child, row.flag) {
				d.Set(mergeMapValues(p, c))
			} else {
				d.Set(c)
			}
		case ConcatList:
			if inherits(child, row.flag) {
				d.Set(concatValues(p, c))
			} else {
				d.Set(c)
			}
		case mainCommands:
			policy := CommandsDefault
			if row.flag >= 0 {
				if v := CommandsPolicy(child.Field(row.flag).String()); v != "" {
					policy = v
				}
			}
			d.Set(combineCommands(p, c, policy))
		case nested:
			if p.IsNil() && c.IsNil() {
				continue
			}
			elem := d.Type().Elem()
			merged := reflect.New(elem)
			mergeStruct(merged.Elem(), derefOrZero(p, elem), derefOrZero(c, elem), row.table)
			d.Set(merged)
		}
	}
}

// inherits reads the *bool inherit flag at index; unset flags default to true.
func inherits(v reflect.Value, index int) bool {
	if index < 0 {
		return true
	}
	flag := v.Field(index)
	if flag.IsNil() {
		return true
	}
	return flag.Elem().Bool()
}

func mergeMapValues(parent, child reflect.Value) reflect.Value {
	if parent.Len() == 0 && child.IsNil() {
		return child
	}
	out := reflect.MakeMapWithSize(parent.Type(), parent.Len()+child.Len())
	for _, m := range []reflect.Value{parent, child} {
		iter := m.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), iter.Value())
		}
	}
	return out
}

func concatValues(parent, child reflect.Value) reflect.Value {
	if parent.Len() == 0 {
		return child
	}
	out := reflect.MakeSlice(parent.Type(), 0, parent.Len()+child.Len())
	out = reflect.AppendSlice(out, parent)
	return reflect.AppendSlice(out, child)
}

func combineCommands(parent, child reflect.Value, policy CommandsPolicy) reflect.Value {
	switch policy {
	case CommandsIgnore:
		return child
	case CommandsBefore:
		return concatValues(parent, child)
	case CommandsAfter:
		return concatValues(child, parent)
	default:
		if child.Len() > 0 {
			return child
		}
		return parent
	}
}

func derefOrZero(v reflect.Value, elem reflect.Type) reflect.Value {
	if v.IsNil() {
		return reflect.New(elem).Elem()
	}
	return v.Elem()
}
