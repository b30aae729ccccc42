package schema

// Augment rewrites a raw schema tree into the canonical augmented form: at
// every group boundary (the root, and each array's element schema) the
// count/offset meta placeholders for every variable-length descendant
// reachable through pure object nesting are inserted at the top of the
// group, in field declaration order, ahead of the group's own value
// fields. Object fields are not group boundaries — their descendants'
// meta entries bubble up to the nearest enclosing root/array-element
// group, keyed by the dotted path from that group.
//
// If the schema declared explicit count/offset fields anywhere (detected
// during parsing; see Schema.ExplicitMeta), augmentation is a no-op: the
// author is responsible for correct placement.
func Augment(s *Schema) {
	if s.ExplicitMeta || s.Root == nil {
		return
	}
	augmentGroup(s.Root)
}

func augmentGroup(group *Field) {
	var metaFields []*Field

	var collect func(f *Field, path string)
	collect = func(f *Field, path string) {
		switch f.Kind {
		case KindArray:
			metaFields = append(metaFields,
				&Field{Kind: KindMetaCount, Path: path},
				&Field{Kind: KindMetaOffset, Path: path})
		case KindObject:
			for _, c := range f.Children {
				collect(c, path+"."+c.Name)
			}
		case KindScalar:
			switch f.Type {
			case "bytes":
				metaFields = append(metaFields,
					&Field{Kind: KindMetaOffset, Path: path},
					&Field{Kind: KindMetaCount, Path: path})
			case "string":
				metaFields = append(metaFields, &Field{Kind: KindMetaOffset, Path: path})
			}
		}
	}

	for _, c := range group.Children {
		collect(c, c.Name)
	}

	values := make([]*Field, 0, len(group.Children))
	for _, c := range group.Children {
		values = append(values, rewriteValueField(c))
	}

	merged := make([]*Field, 0, len(metaFields)+len(values))
	merged = append(merged, metaFields...)
	merged = append(merged, values...)
	group.Children = merged
}

// rewriteValueField recursively augments array element schemas (new group
// boundaries) and walks into object fields (same group, no re-insertion)
// without otherwise changing the field.
func rewriteValueField(f *Field) *Field {
	switch f.Kind {
	case KindArray:
		elementGroup := &Field{Kind: KindObject, Children: f.Children}
		augmentGroup(elementGroup)
		f.Children = elementGroup.Children
		return f
	case KindObject:
		sub := make([]*Field, 0, len(f.Children))
		for _, c := range f.Children {
			sub = append(sub, rewriteValueField(c))
		}
		f.Children = sub
		return f
	default:
		return f
	}
}
